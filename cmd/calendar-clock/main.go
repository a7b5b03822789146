package main

import (
	"fmt"
	"os"

	"github.com/thegreatkingbear/calendar-clock/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

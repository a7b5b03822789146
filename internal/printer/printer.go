// Package printer renders command results as colored text, JSON or YAML.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Printer struct {
	Out      io.Writer
	Format   string
	Color    bool
	Location *time.Location
}

func ParseFormat(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", value)
	}
}

// WeatherReport is the payload of the weather command.
type WeatherReport struct {
	Current  *weather.Sample `json:"current,omitempty" yaml:"current,omitempty"`
	Forecast []weather.Group `json:"forecast" yaml:"forecast"`
}

func (p *Printer) State(st reactor.State, updatedAt string) error {
	if p.Structured() {
		return p.encode(struct {
			UpdatedAt string        `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
			State     reactor.State `json:"state" yaml:"state"`
		}{UpdatedAt: updatedAt, State: st})
	}

	title := p.style(color.Bold)
	faint := p.style(color.Faint)

	_, _ = title.Fprintln(p.Out, st.Time)
	_, _ = fmt.Fprintln(p.Out, st.Date)
	if st.Weather != nil {
		_, _ = fmt.Fprintf(p.Out, "%s %s\n", st.Weather.TemperatureText(), st.Weather.Description)
	}
	if st.DisplayLocked {
		_, _ = faint.Fprintln(p.Out, "display locked")
	}
	for _, section := range st.Events {
		_, _ = fmt.Fprintln(p.Out)
		p.agendaText(section.Header, section.Items)
	}
	if st.HiddenCount > 0 {
		_, _ = faint.Fprintf(p.Out, "%d hidden\n", st.HiddenCount)
	}
	if len(st.Forecast) > 0 {
		_, _ = fmt.Fprintln(p.Out)
		p.forecastText(st.Forecast)
	}
	if updatedAt != "" {
		_, _ = faint.Fprintf(p.Out, "\nupdated %s\n", updatedAt)
	}
	return nil
}

func (p *Printer) Agenda(records []events.Record) error {
	if p.Structured() {
		if records == nil {
			records = []events.Record{}
		}
		return p.encode(records)
	}
	p.agendaText(reactor.TodaySection, records)
	return nil
}

func (p *Printer) Calendars(groups []calendar.Group) error {
	if p.Structured() {
		if groups == nil {
			groups = []calendar.Group{}
		}
		return p.encode(groups)
	}

	header := p.style(color.Bold, color.Underline)
	faint := p.style(color.Faint)
	if len(groups) == 0 {
		_, _ = p.style(color.Faint, color.Italic).Fprintln(p.Out, " none")
		return nil
	}
	for i, group := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(p.Out)
		}
		_, _ = header.Fprintln(p.Out, group.Header)
		for _, item := range group.Items {
			mark := "[ ]"
			if item.Selected {
				mark = "[x]"
			}
			_, _ = fmt.Fprintf(p.Out, "%s %s ", mark, item.Name)
			_, _ = faint.Fprintln(p.Out, item.UID)
		}
	}
	return nil
}

func (p *Printer) Weather(report WeatherReport) error {
	if report.Forecast == nil {
		report.Forecast = []weather.Group{}
	}
	if p.Structured() {
		return p.encode(report)
	}

	if report.Current != nil {
		_, _ = p.style(color.Bold).Fprintf(p.Out, "%s ", report.Current.TemperatureText())
		_, _ = fmt.Fprintf(p.Out, "%s (feels like %.0f°, humidity %d%%)\n",
			report.Current.Description, report.Current.FeelsLike, report.Current.Humidity)
	}
	if len(report.Forecast) > 0 {
		if report.Current != nil {
			_, _ = fmt.Fprintln(p.Out)
		}
		p.forecastText(report.Forecast)
	}
	return nil
}

func (p *Printer) agendaText(header string, records []events.Record) {
	title := p.style(color.Bold, color.Underline)
	faint := p.style(color.Faint)
	accent := p.style(color.FgHiYellow)

	_, _ = title.Fprintln(p.Out, header)
	if len(records) == 0 {
		_, _ = p.style(color.Faint, color.Italic).Fprintln(p.Out, " none")
		return
	}
	for i, r := range records {
		span := "all day"
		if !r.AllDay {
			span = r.Start.In(p.location()).Format("15:04") + "-" + r.End.In(p.location()).Format("15:04")
		}
		_, _ = faint.Fprintf(p.Out, "%2d ", i+1)
		_, _ = fmt.Fprintf(p.Out, "%-11s %s", span, r.Title)
		if r.ShowProgress {
			_, _ = accent.Fprintf(p.Out, " %3.0f%%", r.Progress*100)
		}
		_, _ = faint.Fprintf(p.Out, " %s\n", events.Countdown(r))
	}
}

func (p *Printer) forecastText(groups []weather.Group) {
	day := p.style(color.Bold)
	faint := p.style(color.Faint)
	for _, g := range groups {
		_, _ = day.Fprintf(p.Out, "%s %02d ", g.Weekday, g.Day)
		for i, s := range g.Items {
			if i > 0 {
				_, _ = fmt.Fprint(p.Out, "  ")
			}
			_, _ = faint.Fprintf(p.Out, "%sh ", s.Hour(p.location()))
			_, _ = fmt.Fprint(p.Out, s.TemperatureText())
		}
		_, _ = fmt.Fprintln(p.Out)
	}
}

// Structured reports whether output is machine readable.
func (p *Printer) Structured() bool {
	return p.Format == FormatJSON || p.Format == FormatYAML
}

func (p *Printer) encode(v any) error {
	switch p.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

func (p *Printer) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *Printer) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

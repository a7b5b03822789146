package reactor

import (
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
)

// SettingsEffects persists and republishes the selection after a toggle.
type SettingsEffects interface {
	SaveSettings(groups []calendar.PersistedGroup)
	PublishSelection(ids calendar.IdentifierSet)
}

type SettingsState struct {
	Groups []calendar.Group `json:"groups" yaml:"groups"`
}

type Settings struct {
	fx SettingsEffects
}

func NewSettings(fx SettingsEffects) *Settings {
	return &Settings{fx: fx}
}

func (r *Settings) Reduce(state SettingsState, action Action) SettingsState {
	switch a := action.(type) {
	case CalendarsFetched:
		state.Groups = a.Groups
		return state

	case CalendarToggled:
		groups, ok := calendar.Toggle(state.Groups, a.Identifier)
		if !ok {
			return state
		}
		state.Groups = groups
		r.fx.SaveSettings(calendar.ToPersisted(groups))
		r.fx.PublishSelection(calendar.CollectSelectedIdentifiers(groups))
		return state

	default:
		return state
	}
}

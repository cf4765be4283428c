package pkg

import (
	"errors"
	"fmt"

	"github.com/qnkhuat/openingrush/pkg/trainer"
)

type Action string

const (
	ActionPlayAs  Action = "Play as"
	ActionPGN     Action = "PGN"
	ActionStart   Action = "Start"
	ActionFlip    Action = "Flip"
	ActionQuit    Action = "Quit"
	ActionPresets Action = "Presets"
)

const invalidPGNText = "⁉️  You need to enter a valid PGN, or select from the presets below"

// LoadErrorText is the message shown when a line cannot be trained.
func LoadErrorText(err error) string {
	switch {
	case errors.Is(err, trainer.ErrNotLoaded):
		return "⁉️  Load a line before starting"
	case errors.Is(err, trainer.ErrEmptyLine):
		return "⁉️  That PGN has no moves"
	case errors.Is(err, trainer.ErrIllegalLine):
		return fmt.Sprintf("⁉️  %v", err)
	default:
		return invalidPGNText
	}
}

// FeedbackText renders a notice with the session counters.
func FeedbackText(n trainer.Notice, s trainer.Stats) string {
	return fmt.Sprintf("%s  %d correct · %d off-book · %d lines", n.Text, s.Correct, s.OffBook, s.Completed)
}

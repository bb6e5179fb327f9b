package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used accross the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used accross the CLI application.
var (
	StatusColor  = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
)

var messageStyles = map[MessageType]lipgloss.Style{
	StatusMessage:  lipgloss.NewStyle().Foreground(StatusColor),
	SuccessMessage: lipgloss.NewStyle().Foreground(SuccessColor),
	ErrorMessage:   lipgloss.NewStyle().Foreground(ErrorColor).Bold(true),
}

// DecorateText shows the message types in different colors.
// Styling is dropped automatically when the output is not a terminal.
func DecorateText(s string, msgType MessageType) string {
	style, ok := messageStyles[msgType]
	if !ok {
		return s
	}
	return style.Render(s)
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	if d.Seconds() < 60.0 {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d.Minutes() < 60.0 {
		remainingSeconds := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), remainingSeconds)
	}
	remainingMinutes := math.Mod(d.Minutes(), 60)
	remainingSeconds := math.Mod(d.Seconds(), 60)
	return fmt.Sprintf("%dh %dm %.2fs",
		int64(d.Hours()), int64(remainingMinutes), remainingSeconds)
}

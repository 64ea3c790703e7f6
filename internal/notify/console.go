package notify

import (
	"fmt"

	"github.com/fatih/color"
)

// Console prints notifications to the terminal, colored by level.
type Console struct{}

func NewConsole() *Console { return &Console{} }

func (Console) Notify(title, message string, level Level) error {
	var c *color.Color
	switch level {
	case LevelSuccess:
		c = color.New(color.FgGreen, color.Bold)
	case LevelWarning:
		c = color.New(color.FgYellow, color.Bold)
	case LevelError, LevelAlert:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgCyan, color.Bold)
	}
	c.Printf("[%s] %s", title, message)
	fmt.Println()
	return nil
}

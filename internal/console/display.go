// Package console is the terminal front of the client: the Display the
// engine reports to, the command interpreter and the session loop tying
// them to a transport.
package console

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/1ureka/dioxane/internal/state"
	"github.com/1ureka/dioxane/internal/util"
)

// Display renders engine output through the pterm logger and prints room
// messages as they are added and acknowledged.
type Display struct{}

func (Display) LogError(text string)   { util.Log(util.LevelError, text) }
func (Display) LogDebug(text string)   { util.Log(util.LevelDebug, text) }
func (Display) LogInfo(text string)    { util.Log(util.LevelInfo, text) }
func (Display) LogSuccess(text string) { util.Log(util.LevelSuccess, text) }

func (Display) MessageAdded(room state.Room, msg state.Message) {
	if msg.Direction == state.Sent {
		pterm.FgGray.Println(formatMessage(room, msg))
		return
	}
	pterm.FgLightCyan.Println(formatMessage(room, msg))
}

func (Display) MessageAcknowledged(room state.Room, msg state.Message) {
	pterm.FgLightGreen.Println(formatMessage(room, msg))
}

// formatMessage renders one room log line, e.g.
//
//	[Room with Baophes] Amus -> Baophes: hello (pending)
func formatMessage(room state.Room, msg state.Message) string {
	switch msg.Direction {
	case state.Sent:
		status := "pending"
		if msg.Acknowledged {
			status = "delivered"
		}
		return fmt.Sprintf("[%s] %s -> %s: %s (%s)", room.ID, msg.Sender, msg.Recipient, msg.Payload, status)
	default:
		return fmt.Sprintf("[%s] %s: %s", room.ID, msg.Sender, msg.Payload)
	}
}

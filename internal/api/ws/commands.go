package ws

import (
	"fmt"

	"github.com/previewd/previewd/internal/domain/tab"
)

// CommandType tags an inbound surface command. The set is closed: frames
// carrying any other tag are answered with an error frame and dropped.
type CommandType string

const (
	// CommandSelectFile opens a document, or requests the pickable file
	// list when no path is given.
	CommandSelectFile CommandType = "selectFile"
	// CommandSwitchTab activates a tab.
	CommandSwitchTab CommandType = "switchTab"
	// CommandCloseTab closes a tab.
	CommandCloseTab CommandType = "closeTab"
	// CommandAddTab appends a fresh tab and activates it.
	CommandAddTab CommandType = "addTab"
	// CommandRefresh re-synchronizes the focused document immediately.
	CommandRefresh CommandType = "refresh"
)

// Command is one inbound frame from the preview surface.
type Command struct {
	Command CommandType `json:"command"`
	TabID   tab.ID      `json:"tab_id,omitempty"`
	Path    string      `json:"path,omitempty"`
}

// Validate checks the tag against the closed command set and that
// tab-addressed commands carry a tab id.
func (c Command) Validate() error {
	switch c.Command {
	case CommandSelectFile, CommandAddTab, CommandRefresh:
		return nil
	case CommandSwitchTab, CommandCloseTab:
		if c.TabID == 0 {
			return fmt.Errorf("command %s requires tab_id", c.Command)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}

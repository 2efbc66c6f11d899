package controller

import "fmt"

// CommandKind enumerates the destructive actions that require
// interactive confirmation.
type CommandKind int

const (
	CmdDeleteThread CommandKind = iota
	CmdDeleteFile
	CmdForgetMemory
)

// Command is a destructive action as a value: dispatched through one
// confirmation gate instead of ad hoc per-click closures.
type Command struct {
	Kind     CommandKind
	TargetID string
	// Display gives the prompt something better than an opaque id.
	Display string
}

// Prompt returns the confirmation question for the command.
func (c Command) Prompt() string {
	name := c.Display
	if name == "" {
		name = c.TargetID
	}
	switch c.Kind {
	case CmdDeleteThread:
		return fmt.Sprintf("Delete thread %q?", name)
	case CmdDeleteFile:
		return fmt.Sprintf("Delete file %q?", name)
	case CmdForgetMemory:
		return fmt.Sprintf("Forget memory fact %q?", name)
	}
	return fmt.Sprintf("Proceed with %q?", name)
}

// RequestConfirm stages a command behind the confirmation gate.
// Only one command may be staged at a time; a second request while one
// is pending is refused.
func (c *Controller) RequestConfirm(cmd Command) bool {
	if c.pendingCmd != nil {
		return false
	}
	c.pendingCmd = &cmd
	return true
}

// PendingCommand returns the staged command, if any.
func (c *Controller) PendingCommand() *Command {
	return c.pendingCmd
}

// ResolveConfirm consumes the staged command. It returns the command
// only when the user accepted; a decline simply clears the gate
// (permission failure, no error surfaced).
func (c *Controller) ResolveConfirm(accepted bool) *Command {
	cmd := c.pendingCmd
	c.pendingCmd = nil
	if !accepted {
		return nil
	}
	return cmd
}

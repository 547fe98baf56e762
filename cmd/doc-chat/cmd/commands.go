package cmd

import "strings"

type commandKind int

const (
	cmdQuery commandKind = iota
	cmdUpload
	cmdReset
	cmdSession
	cmdExport
	cmdHelp
	cmdQuit
	cmdUnknown
)

// command is one parsed line of chat input
type command struct {
	kind commandKind
	// arg is the query text, the command argument, or the unknown command name
	arg string
}

// parseCommand splits a line into a slash command and its argument.
// Anything that is not a command is a query and is passed through unchanged.
func parseCommand(line string) command {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "exit", "quit":
		return command{kind: cmdQuit}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: cmdQuery, arg: line}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/upload":
		return command{kind: cmdUpload, arg: arg}
	case "/reset":
		return command{kind: cmdReset}
	case "/session":
		return command{kind: cmdSession}
	case "/export":
		return command{kind: cmdExport, arg: arg}
	case "/help", "/?":
		return command{kind: cmdHelp}
	case "/exit", "/quit":
		return command{kind: cmdQuit}
	default:
		return command{kind: cmdUnknown, arg: name}
	}
}

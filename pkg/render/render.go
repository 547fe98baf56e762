// Package render prints transcript messages to a terminal
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrew/doc-chat/pkg/models"
	"github.com/fatih/color"
)

// Renderer writes messages to an output stream with terminal colours
type Renderer struct {
	out io.Writer

	user      func(a ...interface{}) string
	assistant func(a ...interface{}) string
	faint     func(a ...interface{}) string
	section   func(a ...interface{}) string
	score     func(a ...interface{}) string
	notice    func(a ...interface{}) string
}

// New creates a renderer writing to out
func New(out io.Writer) *Renderer {
	return &Renderer{
		out:       out,
		user:      color.New(color.FgGreen, color.Bold).SprintFunc(),
		assistant: color.New(color.FgCyan, color.Bold).SprintFunc(),
		faint:     color.New(color.Faint).SprintFunc(),
		section:   color.New(color.FgGreen).SprintFunc(),
		score:     color.New(color.FgYellow).SprintFunc(),
		notice:    color.New(color.FgMagenta).SprintFunc(),
	}
}

// Message prints a single transcript entry
func (r *Renderer) Message(msg models.Message) {
	fmt.Fprintf(r.out, "%s %s %s\n", r.faint(msg.Timestamp), r.prefix(msg.Sender), r.body(msg))

	if msg.Kind != models.KindSearchResults {
		return
	}
	for i, res := range msg.Results {
		header := fmt.Sprintf("  %d. [%s]", i+1, r.section(res.Section))
		if res.RelevanceScore != "" {
			header += " " + r.score("("+res.RelevanceScore+")")
		}
		fmt.Fprintln(r.out, header)
		for _, line := range strings.Split(res.Content, "\n") {
			fmt.Fprintf(r.out, "     %s\n", line)
		}
	}
}

// Transcript prints every message in order
func (r *Renderer) Transcript(messages []models.Message) {
	for _, msg := range messages {
		r.Message(msg)
	}
}

// Prompt prints the input prompt without a newline
func (r *Renderer) Prompt(ready bool) {
	if ready {
		fmt.Fprint(r.out, r.user("You: "))
		return
	}
	fmt.Fprint(r.out, r.faint("(upload a document with /upload <path>) ")+r.user("You: "))
}

// Info prints a local status line that is not part of the transcript
func (r *Renderer) Info(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.faint(fmt.Sprintf(format, args...)))
}

func (r *Renderer) prefix(sender models.Sender) string {
	if sender == models.SenderUser {
		return r.user("You:")
	}
	return r.assistant("Assistant:")
}

func (r *Renderer) body(msg models.Message) string {
	if msg.Kind == models.KindFileNotice {
		return r.notice("[file]") + " " + msg.Text
	}
	return msg.Text
}

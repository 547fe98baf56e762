package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/andrew/doc-chat/pkg/chat"
	"github.com/andrew/doc-chat/pkg/docservice"
	"github.com/andrew/doc-chat/pkg/models"
	"github.com/andrew/doc-chat/pkg/render"
	"github.com/andrew/doc-chat/pkg/watch"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	addChatFlags(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat (default)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().String("document", "", "document to upload on start")
	cmd.Flags().String("watch", "", "folder whose new documents are uploaded automatically (env DOC_CHAT_WATCH_DIR)")
}

const helpText = `Commands:
  /upload <path>   upload a .pdf, .txt or .docx document
  /reset           start a new conversation with the same document
  /session         show the current conversation id
  /export <path>   write the transcript as JSON
  /help            show this help
  exit             quit`

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			fmt.Println("\nShutting down...")
			cancel()
			os.Exit(0)
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintln(out, boldGreen("Document Chat"))
	fmt.Fprintf(out, "Service: %s\n", boldCyan(current.cfg.Service.URL))
	fmt.Fprintln(out, "Type /help for commands. Type 'exit' or press Ctrl+C to quit.")
	fmt.Fprintln(out)

	probeCtx, probeCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := current.client.Health(probeCtx); err != nil {
		fmt.Fprintf(out, "Warning: document service not reachable: %v\n\n", err)
	}
	probeCancel()

	r := newREPL(current.client, current.logger, cmd.InOrStdin(), out)
	r.transcript()

	if doc, _ := cmd.Flags().GetString("document"); doc != "" {
		if err := r.upload(ctx, doc); err != nil {
			r.render.Info("Could not upload %s: %v", doc, err)
		}
	}

	if dir := current.cfg.WatchDir; dir != "" {
		w, err := watch.New(current.logger)
		if err != nil {
			return err
		}
		defer w.Close()
		paths, err := w.Watch(ctx, dir)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		r.render.Info("Watching %s for new documents", dir)
		go r.autoUpload(ctx, paths)
	}

	return r.run(ctx)
}

// repl drives a chat session from line-oriented input
type repl struct {
	session *chat.Session
	render  *render.Renderer
	in      io.Reader
	logger  *zap.Logger

	// serializes terminal output between the input loop and the watcher
	outMu sync.Mutex
}

func newREPL(client docservice.Client, logger *zap.Logger, in io.Reader, out io.Writer) *repl {
	r := &repl{
		render: render.New(out),
		in:     in,
		logger: logger,
	}
	r.session = chat.NewSession(client,
		chat.WithLogger(logger),
		chat.WithListener(r.onEvent))
	return r
}

func (r *repl) onEvent(ev chat.Event) {
	if ev.Type != chat.EventMessage {
		return
	}
	r.outMu.Lock()
	defer r.outMu.Unlock()
	r.render.Message(ev.Message)
}

func (r *repl) transcript() {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	r.render.Transcript(r.session.Transcript())
}

func (r *repl) info(format string, args ...interface{}) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	r.render.Info(format, args...)
}

func (r *repl) prompt() {
	ready := r.session.Phase() == chat.PhaseReady
	r.outMu.Lock()
	defer r.outMu.Unlock()
	r.render.Prompt(ready)
}

// run reads commands until exit, end of input or ctx is done
func (r *repl) run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		r.prompt()
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			break
		}
	}
	return scanner.Err()
}

// handle executes one input line and reports whether the user asked to quit
func (r *repl) handle(ctx context.Context, line string) bool {
	c := parseCommand(line)
	switch c.kind {
	case cmdQuit:
		return true
	case cmdQuery:
		r.query(ctx, c.arg)
	case cmdUpload:
		if c.arg == "" {
			r.info("Usage: /upload <path>")
			return false
		}
		if err := r.upload(ctx, c.arg); err != nil {
			r.info("Could not upload %s: %v", c.arg, err)
		}
	case cmdReset:
		r.session.ResetSession()
		r.info("Started a new conversation")
	case cmdSession:
		if id := r.session.SessionID(); id != "" {
			r.info("Session: %s", id)
		} else {
			r.info("No session established yet")
		}
	case cmdExport:
		if c.arg == "" {
			r.info("Usage: /export <path>")
			return false
		}
		if err := r.export(c.arg); err != nil {
			r.info("Could not export transcript: %v", err)
		} else {
			r.info("Transcript written to %s", c.arg)
		}
	case cmdHelp:
		r.info(helpText)
	default:
		r.info("Unknown command %q. Type /help for commands.", c.arg)
	}
	return false
}

func (r *repl) query(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	r.session.SetInput(text)
	if r.session.SubmitInput(ctx) {
		return
	}
	switch {
	case r.session.Phase() != chat.PhaseReady:
		r.info("Upload a document first with /upload <path>")
	case r.session.InFlight():
		r.info("Still waiting for the previous request")
	}
}

// upload reads the document at path and submits it to the session
func (r *repl) upload(ctx context.Context, path string) error {
	if !models.IsAcceptedType(path) {
		return fmt.Errorf("%w %q, expected one of %s",
			models.ErrUnsupportedType, filepath.Ext(path), strings.Join(models.AcceptedExtensions, ", "))
	}
	doc, err := models.LoadDocumentFile(path)
	if err != nil {
		return err
	}
	return r.session.SubmitDocument(ctx, doc)
}

// autoUpload submits documents reported by the folder watcher
func (r *repl) autoUpload(ctx context.Context, paths <-chan string) {
	for path := range paths {
		r.logger.Info("document dropped", zap.String("path", path))
		err := r.upload(ctx, path)
		switch {
		case errors.Is(err, chat.ErrInFlight):
			r.logger.Warn("skipping dropped document, request in flight", zap.String("path", path))
			r.info("Skipped %s: a request is already in progress", filepath.Base(path))
		case err != nil:
			r.logger.Warn("failed to upload dropped document", zap.String("path", path), zap.Error(err))
			r.info("Could not upload %s: %v", filepath.Base(path), err)
		}
	}
}

// export writes the transcript snapshot to path as indented JSON
func (r *repl) export(path string) error {
	data, err := json.MarshalIndent(r.session.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

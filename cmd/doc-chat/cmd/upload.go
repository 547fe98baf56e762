package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrew/doc-chat/pkg/chat"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
}

var errUploadFailed = errors.New("document was not accepted by the service")

var uploadCmd = &cobra.Command{
	Use:   "upload [document-path]",
	Short: "Upload a document and print the service reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newREPL(current.client, current.logger, cmd.InOrStdin(), cmd.OutOrStdout())
		return uploadOnce(cmd, r, args[0])
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [document-path] [question...]",
	Short: "Upload a document, ask one question and print the answer",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newREPL(current.client, current.logger, cmd.InOrStdin(), cmd.OutOrStdout())
		if err := uploadOnce(cmd, r, args[0]); err != nil {
			return err
		}
		question := strings.Join(args[1:], " ")
		if !r.session.SubmitQuery(cmd.Context(), question) {
			return fmt.Errorf("question %q was not submitted", question)
		}
		return lastReplyError(r)
	},
}

var errQueryFailed = errors.New("query failed")

// lastReplyError reports the failure recorded by the session's latest reply
func lastReplyError(r *repl) error {
	msgs := r.session.Transcript()
	if msgs[len(msgs)-1].Failed {
		return errQueryFailed
	}
	return nil
}

func uploadOnce(cmd *cobra.Command, r *repl, path string) error {
	if err := r.upload(cmd.Context(), path); err != nil {
		return err
	}
	if r.session.Phase() != chat.PhaseReady {
		return errUploadFailed
	}
	return nil
}

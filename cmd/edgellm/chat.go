package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"edgellm/internal/session"
)

type chatOptions struct {
	system     string
	once       string
	transcript string
	history    string
}

func newChatCmd(a *app) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the model",
		Example: "  edgellm chat --model ~/models/llm/smollm2.gguf\n" +
			"  edgellm chat --once \"Summarize GGUF in one sentence\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path, err := a.requireModel()
			if err != nil {
				return err
			}
			if opts.transcript == "" {
				opts.transcript = a.cfg.TranscriptPath
			}
			pub, closeTranscript, err := a.openTranscript(opts.transcript)
			if err != nil {
				return err
			}
			sess, err := session.Open(cmd.Context(), session.Config{Engine: a.engine, Logger: &a.log, Publisher: pub}, path, a.cfg.Params)
			if err != nil {
				return multierror.Append(err, closeTranscript()).ErrorOrNil()
			}
			defer func() {
				var merr *multierror.Error
				merr = multierror.Append(merr, err, sess.Close(), closeTranscript())
				err = merr.ErrorOrNil()
			}()

			system := opts.system
			if system == "" {
				system = a.cfg.SystemPrompt
			}
			if system != "" {
				if err := sess.AddSystemPrompt(system); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if opts.once != "" {
				return streamReply(cmd.Context(), sess, opts.once, out)
			}
			return runREPL(cmd.Context(), sess, out, opts.history)
		},
	}
	cmd.Flags().StringVar(&opts.system, "system", "", "System prompt (overrides config system_prompt)")
	cmd.Flags().StringVar(&opts.once, "once", "", "Send one message, print the reply and exit")
	cmd.Flags().StringVar(&opts.transcript, "transcript", "", "sqlite file recording finished turns (overrides config transcript_path)")
	cmd.Flags().StringVar(&opts.history, "history", defaultHistoryFile(), "Line-editing history file")
	return cmd
}

// streamReply prints the response to query token by token followed by a
// throughput line.
func streamReply(ctx context.Context, sess *session.Session, query string, out io.Writer) error {
	st, err := sess.GenerateResponse(ctx, query)
	if err != nil {
		return err
	}
	for tok, err := range st.Tokens(ctx) {
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		fmt.Fprint(out, tok)
	}
	m := st.Metrics()
	fmt.Fprintf(out, "\n[%d tokens, %.1f tok/s]\n", m.TokensGenerated, m.TokensPerSecond())
	return nil
}

func runREPL(ctx context.Context, sess *session.Session, out io.Writer, historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile)

	fmt.Fprintln(out, "Type a message, /system <prompt>, /stats or /quit.")
	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the session.
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlash(sess, input, out)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if quit {
				return nil
			}
			continue
		}
		if err := streamReply(ctx, sess, input, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, "error:", err)
		}
	}
}

// handleSlash runs one REPL command and reports whether to quit.
func handleSlash(sess *session.Session, input string, out io.Writer) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/system":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return false, errors.New("usage: /system <prompt>")
		}
		return false, sess.AddSystemPrompt(arg)
	case "/stats":
		m := sess.Metrics()
		fmt.Fprintf(out, "model=%s ctx=%d messages=%d last=%d tokens speed=%.1f tok/s\n",
			filepath.Base(sess.ModelPath()), sess.ContextSize(), len(sess.History()),
			m.TokensGenerated, sess.ResponseGenerationSpeed())
		return false, nil
	}
	return false, fmt.Errorf("unknown command %s", name)
}

func defaultHistoryFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "edgellm", "chat_history")
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

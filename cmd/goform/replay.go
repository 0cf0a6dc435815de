package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/internal/watch"
	"github.com/reoring/goform/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		watchFiles bool
		issues     bool
	)
	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Replay recorded UI events against a form",
		Long: `Replay builds a fresh form from the definition, feeds it the events
in SCRIPT (a YAML list, a JSON array or JSON lines) and prints the
collected frames, submissions and final state as JSON.

With --watch the replay runs again whenever the script or the
definition changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := args[0]
			run := func(ctx context.Context) error {
				return a.replay(ctx, cmd, script, issues)
			}
			if !watchFiles {
				return run(cmd.Context())
			}

			_, defPath, err := a.definition(nil)
			if err != nil {
				return err
			}
			if err := run(cmd.Context()); err != nil {
				a.logger.Error("replay failed", "error", err)
			}
			w, err := watch.New([]string{script, defPath}, a.cfg.Replay.Debounce, a.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a.logger.Info("watching for changes", "script", script, "definition", defPath)
			err = w.Run(ctx, func(ctx context.Context, changed []string) error {
				a.logger.Info("files changed, replaying", "files", changed)
				return run(ctx)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&watchFiles, "watch", "w", false, "replay again when the script or definition changes")
	f.BoolVar(&issues, "issues", false, "print the final issues instead of the full result")
	f.Bool("auto-flush", false, "flush after every event instead of only at flush events")
	f.Duration("debounce", 0, "delay used to coalesce file changes with --watch")
	bindFlags(f, map[string]string{"auto-flush": "replay.auto_flush", "debounce": "replay.debounce"})
	return cmd
}

func (a *app) replay(ctx context.Context, cmd *cobra.Command, script string, issuesOnly bool) error {
	def, _, err := a.definition(nil)
	if err != nil {
		return err
	}
	events, err := replay.LoadScript(script)
	if err != nil {
		return err
	}
	r := &replay.Runner{
		Def:       def,
		AutoFlush: a.cfg.Replay.AutoFlush,
		Options:   []goform.Option{goform.WithLogger(a.logger)},
	}
	res, err := r.Run(ctx, events)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !issuesOnly {
		return res.WriteJSON(out)
	}
	iss := goform.IssuesOf(res.Final.Errors)
	if len(iss) == 0 {
		fmt.Fprintln(out, "no issues")
		return nil
	}
	for _, is := range iss {
		fmt.Fprintf(out, "%s: %s\n", is.Path, is.Message)
	}
	return nil
}

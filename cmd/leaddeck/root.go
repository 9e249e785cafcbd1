package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/leaddeck/internal/app"
	"github.com/five82/leaddeck/internal/query"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	poll       time.Duration
	debug      bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		PollEvery:  g.poll,
		Debug:      g.debug,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var where string

	root := &cobra.Command{
		Use:   "leaddeck",
		Short: "Terminal dashboard for CRM leads",
		Long: `leaddeck lists and inspects the leads assigned to you.

Run without arguments to start the interactive dashboard. The API token is
read from the config file, LEADDECK_TOKEN, or a .env file next to the config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Where = where
			return app.Run(cmd.Context(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/leaddeck/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/leaddeck/prefs.toml)")
	pf.DurationVar(&flags.poll, "poll", 0, "lead list refresh interval (default from config, 30s)")
	pf.BoolVar(&flags.debug, "debug", false, "write debug entries to the log file")
	root.Flags().StringVar(&where, "where", "", "initial lead filter expression")

	root.AddCommand(
		newLeadsCmd(flags),
		newLeadCmd(flags),
		newExportCmd(flags),
		newThemeCmd(flags),
	)
	return root
}

// await blocks until q settles on success or error.
func await[T any](ctx context.Context, q *query.Query[T]) (query.Result[T], error) {
	if res := q.Result(); res.Status == query.StatusSuccess || res.Status == query.StatusError {
		return settled(res)
	}
	for {
		select {
		case st, ok := <-q.Changes():
			if !ok {
				return query.Result[T]{}, fmt.Errorf("query closed")
			}
			res := q.Typed(st)
			if res.Status == query.StatusSuccess || res.Status == query.StatusError {
				return settled(res)
			}
		case <-ctx.Done():
			return query.Result[T]{}, ctx.Err()
		}
	}
}

func settled[T any](res query.Result[T]) (query.Result[T], error) {
	if res.IsError {
		return res, res.Error
	}
	return res, nil
}

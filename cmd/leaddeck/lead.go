package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/leaddeck/internal/app"
	"github.com/five82/leaddeck/internal/leads"
)

func newLeadCmd(flags *globalFlags) *cobra.Command {
	var (
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "lead ID",
		Short: "Show one lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid lead id %q", args[0])
			}

			env, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer env.Close()

			q := leads.UseLeadDetails(env.Queries, env.API, id)
			defer q.Close()
			res, err := await(cmd.Context(), q.Query)
			if err != nil {
				return fmt.Errorf("fetch lead %d: %w", id, err)
			}
			if res.Data == nil {
				return fmt.Errorf("lead %d: empty response", id)
			}

			if raw {
				return writeJSON(cmd.OutOrStdout(), res.Data)
			}

			dark := false
			if theme, err := app.OpenTheme(flags.configPath, flags.prefsPath, env.Logger); err == nil {
				dark = theme.IsDark()
			}
			out, err := leads.RenderMarkdown(*res.Data, width, dark)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the lead object as JSON")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width for the rendered lead")
	return cmd
}

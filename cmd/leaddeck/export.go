package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/leaddeck/internal/app"
	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/export"
	"github.com/five82/leaddeck/internal/leads"
)

const exportParallelism = 4

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		where   string
		details bool
	)
	cmd := &cobra.Command{
		Use:   "export FILE.xlsx",
		Short: "Export the lead list to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := leads.Where(where)
			if err != nil {
				return err
			}
			env, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer env.Close()

			rows, err := fetchLeads(cmd, env, pred)
			if err != nil {
				return err
			}
			if details {
				if rows, err = withDetails(cmd, env, rows); err != nil {
					return err
				}
			}

			if err := export.SaveLeads(args[0], rows, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d leads to %s\n", len(rows), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "filter expression over lead fields")
	cmd.Flags().BoolVar(&details, "details", false, "fetch every lead's full record before exporting")
	return cmd
}

// withDetails replaces each list row with its full record. The fetches run
// through the query client so each lead is requested once.
func withDetails(cmd *cobra.Command, env *app.Env, rows []crm.Lead) ([]crm.Lead, error) {
	ids := make([]int64, 0, len(rows))
	for _, lead := range rows {
		ids = append(ids, lead.ID())
	}
	if err := leads.Prefetch(cmd.Context(), env.Queries, env.API, ids, exportParallelism); err != nil {
		return nil, fmt.Errorf("fetch lead details: %w", err)
	}

	out := make([]crm.Lead, len(rows))
	for i, lead := range rows {
		out[i] = lead
		st, ok := env.Queries.Peek(leads.DetailsKey(lead.ID()))
		if !ok {
			continue
		}
		if full, ok := st.Data.(*crm.Lead); ok && full != nil {
			out[i] = *full
		}
	}
	return out, nil
}

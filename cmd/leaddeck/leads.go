package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/leaddeck/internal/app"
	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/leads"
)

func newLeadsCmd(flags *globalFlags) *cobra.Command {
	var (
		where  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Print the lead list",
		Example: `  leaddeck leads
  leaddeck leads --where 'status == "new" && can_allocate'
  leaddeck leads --json`,
		Args: cobra.NoArgs,
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
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			writeLeadTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "filter expression over lead fields")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw lead objects as JSON")
	return cmd
}

func fetchLeads(cmd *cobra.Command, env *app.Env, pred *leads.Predicate) ([]crm.Lead, error) {
	q := leads.UseLeads(env.Queries, env.API, env.Filter())
	defer q.Close()

	res, err := await(cmd.Context(), q)
	if err != nil {
		return nil, fmt.Errorf("fetch leads: %w", err)
	}
	return pred.Filter(res.Data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLeadTable(w io.Writer, rows []crm.Lead) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No leads.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "PHONE", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	for _, lead := range rows {
		id := "-"
		if n := lead.ID(); n != 0 {
			id = strconv.FormatInt(n, 10)
		}
		t.Row(id, lead.Name(), lead.Email(), lead.Phone(), lead.Status())
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d leads\n", len(rows))
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/leaddeck/internal/app"
	"github.com/five82/leaddeck/internal/prefs"
)

func newThemeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show or change the dark/light preference",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", "dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenTheme(flags.configPath, flags.prefsPath, nil)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				switch args[0] {
				case "toggle":
					if _, err := store.Toggle(); err != nil {
						return err
					}
				default:
					mode, err := prefs.ParseMode(args[0])
					if err != nil {
						return err
					}
					if err := store.Set(mode == prefs.ModeDark); err != nil {
						return err
					}
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Mode())
			return nil
		},
	}
}

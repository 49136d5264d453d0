package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"edgekvm/internal/autostart"
	"edgekvm/internal/config"
)

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "autostart [enable|disable|status] [host|client]",
		Short:     "Start edgekvm at login",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"enable", "disable", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, role := args[0], args[1]
			if role != config.RoleHost && role != config.RoleClient {
				return fmt.Errorf("role must be %q or %q", config.RoleHost, config.RoleClient)
			}
			switch action {
			case "enable":
				if err := autostart.Enable(role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "edgekvm %s will start at login\n", role)
			case "disable":
				if err := autostart.Disable(role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "edgekvm %s will no longer start at login\n", role)
			case "status":
				state := "disabled"
				if autostart.IsEnabled(role) {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", role, state)
			default:
				return fmt.Errorf("unknown action %q", action)
			}
			return nil
		},
	}
	return cmd
}

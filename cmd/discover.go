package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"edgekvm/internal/network"
)

func newDiscoverCmd() *cobra.Command {
	var (
		port    int
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find edgekvm hosts on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			hosts, err := network.ScanLAN(ctx, port)
			if err != nil {
				return err
			}
			if asJSON {
				return jsonEncoder(cmd.OutOrStdout()).Encode(hosts)
			}
			if len(hosts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No hosts found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tNAME\tSTATE")
			for _, h := range hosts {
				fmt.Fprintf(w, "%s:%d\t%s\t%s\n", h.IP, h.Port, h.Name, h.State)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&port, "port", 24800, "port hosts listen on")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall scan timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

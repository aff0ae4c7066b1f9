package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/zotgate/pkg/backend"
	"github.com/rhuss/zotgate/pkg/transport"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the endpoints served by zotgate",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			routes := transport.NewRouteTable(backend.NewClient(backend.Config{}).Routes())
			for _, p := range routes.Paths() {
				fmt.Fprintf(cmd.OutOrStdout(), "POST %s\n", p)
			}
		},
	}
}

// Command zotgate serves the citation translation endpoints (/web, /search,
// /export, /import) over HTTP and forwards them to a translation engine.
//
// Configuration is read from a YAML file (--config, ZOTGATE_CONFIG,
// ./config.yaml or /etc/zotgate/config.yaml) with environment overrides:
//
//	ZOTGATE_PORT            - Listen port (default: 1969)
//	ZOTGATE_BACKEND_URL     - Translation engine URL (required)
//	ZOTGATE_ALLOWED_ORIGINS - Comma-separated CORS origins (default: *)
//	ZOTGATE_AUTH_TYPE       - none, apikey or jwt (default: none)
//	ZOTGATE_API_KEYS        - JSON array of {"key", "subject"} objects
//	ZOTGATE_SENTRY_DSN      - Enables error reporting to Sentry
//	DEBUG_LEVEL             - Numeric log verbosity 0-4
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("zotgate failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zotgate",
		Short:         "HTTP gateway for the citation translation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newRoutesCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the zotgate version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

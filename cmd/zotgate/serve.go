package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/zotgate/pkg/auth"
	"github.com/rhuss/zotgate/pkg/auth/apikey"
	"github.com/rhuss/zotgate/pkg/auth/jwt"
	"github.com/rhuss/zotgate/pkg/auth/noop"
	"github.com/rhuss/zotgate/pkg/backend"
	"github.com/rhuss/zotgate/pkg/config"
	"github.com/rhuss/zotgate/pkg/debug"
	"github.com/rhuss/zotgate/pkg/engine"
	"github.com/rhuss/zotgate/pkg/observability"
	"github.com/rhuss/zotgate/pkg/transport"
	transporthttp "github.com/rhuss/zotgate/pkg/transport/http"
)

type serveOptions struct {
	configPath string
	warm       bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: $ZOTGATE_CONFIG, ./config.yaml, /etc/zotgate/config.yaml)")
	cmd.Flags().BoolVar(&opts.warm, "warm", false, "initialize the translation engine before accepting requests")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Log.Debug, cfg.Log.Level)

	client := backend.NewClient(backend.Config{
		URL:      cfg.Backend.URL,
		APIKey:   cfg.Backend.APIKey,
		Timeout:  cfg.Backend.Timeout,
		InitPath: cfg.Backend.InitPath,
	})
	defer client.Close()

	lazy := engine.NewLazy(client)
	if opts.warm {
		if err := lazy.Warm(ctx); err != nil {
			// Not fatal: the first request retries.
			slog.Warn("engine warm-up failed", "error", err)
		}
	}

	chain, err := buildAuthChain(cfg.Auth)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	reporter, flush, err := buildReporter(cfg.Observability.Sentry)
	if err != nil {
		return fmt.Errorf("configuring error reporting: %w", err)
	}
	defer flush()

	routes := transport.NewRouteTable(client.Routes())
	adapter := transporthttp.NewAdapter(routes,
		transporthttp.WithCORS(transport.CORS{AllowedOrigins: cfg.CORS.AllowedOrigins}),
		transporthttp.WithEngine(lazy),
		transporthttp.WithAuth(chain),
		transporthttp.WithReporter(reporter),
	)

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetricsPath(metricsPath),
	)

	slog.Info("serving",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.URL,
		"routes", routes.Paths(),
		"auth", cfg.Auth.Type,
		"version", version,
	)
	return srv.Run(ctx)
}

// buildAuthChain maps the configured auth type to a chain. Type "none"
// admits every request as the anonymous identity.
func buildAuthChain(cfg config.AuthConfig) (*auth.AuthChain, error) {
	keys := make([]apikey.Key, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys = append(keys, apikey.Key{Key: k.Key, Subject: k.Subject})
	}

	switch cfg.Type {
	case "", "none":
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.Yes,
		}, nil
	case "apikey":
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(keys)},
			DefaultDecision: auth.No,
		}, nil
	case "jwt":
		j, err := jwt.New(jwt.Config{
			Secret:    cfg.JWT.Secret,
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
			UserClaim: cfg.JWT.UserClaim,
		})
		if err != nil {
			return nil, err
		}
		authenticators := []auth.Authenticator{j}
		// Static keys still work alongside tokens when configured.
		if len(keys) > 0 {
			authenticators = append(authenticators, apikey.New(keys))
		}
		return &auth.AuthChain{Authenticators: authenticators, DefaultDecision: auth.No}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// buildReporter returns a Sentry reporter when a DSN is configured and a
// no-op reporter otherwise, plus a function that flushes pending events.
func buildReporter(cfg config.SentryConfig) (observability.Reporter, func(), error) {
	if cfg.DSN == "" {
		return observability.NopReporter{}, func() {}, nil
	}
	r, err := observability.NewSentryReporter(observability.SentryOptions{
		DSN:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     "zotgate@" + version,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, func() { r.Flush(2 * time.Second) }, nil
}

// Command switchboard serves third-party HTTP APIs and stubbed browser
// automation as tools behind a JSON-RPC dispatch protocol, over HTTP or
// stdio.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loopwork-ai/switchboard/internal"
	"github.com/loopwork-ai/switchboard/internal/brave"
	"github.com/loopwork-ai/switchboard/internal/browser"
	"github.com/loopwork-ai/switchboard/internal/config"
	"github.com/loopwork-ai/switchboard/internal/database"
	"github.com/loopwork-ai/switchboard/internal/httpserver"
	"github.com/loopwork-ai/switchboard/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "A tool-registry server exposing upstream APIs behind JSON-RPC dispatch",
	Long: `switchboard exposes web search, a managed-database REST interface, and
stubbed browser automation as callable tools behind a single JSON-RPC
request-routing protocol, with generated API documentation.

By default it serves HTTP: POST /rpc carries requests, GET /rpc opens the
notification channel, and /docs renders the generated schema document.
With --stdio it processes newline-delimited JSON-RPC on stdin/stdout
instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		if !verbose {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if address != "" {
			cfg.Address = address
		}
		if err := cfg.ResolveSecrets(ctx); err != nil {
			return fmt.Errorf("error resolving secrets: %w", err)
		}

		// Failures are surfaced on first occurrence: retries stay off
		// unless explicitly requested.
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = retries
		retryClient.HTTPClient.Timeout = timeout
		retryClient.Logger = logger
		client := internal.WithDefaultHeaders(retryClient.StandardClient(), nil)

		registry := mcp.NewRegistry()
		if err := registry.RegisterAll(brave.Tools(brave.NewClient(brave.Config{
			APIKey:  cfg.Brave.APIKey,
			BaseURL: cfg.Brave.BaseURL,
		}, client))); err != nil {
			return fmt.Errorf("error registering search tools: %w", err)
		}
		if err := registry.RegisterAll(database.Tools(database.NewClient(database.Config{
			URL:    cfg.Database.URL,
			APIKey: cfg.Database.APIKey,
		}, client))); err != nil {
			return fmt.Errorf("error registering database tools: %w", err)
		}
		if err := registry.RegisterAll(browser.Tools()); err != nil {
			return fmt.Errorf("error registering browser tools: %w", err)
		}
		logger.Info("registry initialized", "tools", registry.Len())

		dispatcher := mcp.NewServer(registry, mcp.WithLogger(logger))

		g, ctx := errgroup.WithContext(ctx)

		if stdio {
			g.Go(func() error {
				transport := mcp.NewStdioTransport(dispatcher, os.Stdin, os.Stdout, os.Stderr)
				return transport.Run(ctx)
			})
			return g.Wait()
		}

		shell, err := httpserver.New(registry, dispatcher,
			httpserver.WithLogger(logger),
			httpserver.WithToken(cfg.Token),
			httpserver.WithHeartbeatInterval(cfg.HeartbeatInterval.Std()),
		)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}

		srv := &http.Server{
			Addr:    cfg.Address,
			Handler: shell.Router(),
		}

		g.Go(func() error {
			logger.Info("listening", "address", cfg.Address, "serverId", shell.ServerID())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

var (
	configPath string
	address    string
	stdio      bool
	verbose    bool
	retries    int
	timeout    time.Duration

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringVar(&address, "address", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().BoolVar(&stdio, "stdio", false, "Serve JSON-RPC on stdin/stdout instead of HTTP")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "Maximum number of retries for upstream requests")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Upstream HTTP request timeout")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

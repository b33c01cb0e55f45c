package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/threeview"
	"github.com/aretw0/threeview/internal/config"
	"github.com/aretw0/threeview/internal/demo"
	"github.com/aretw0/threeview/internal/presentation/tui"
	httpAdapter "github.com/aretw0/threeview/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/threeview/pkg/adapters/mcp"
	redisAdapter "github.com/aretw0/threeview/pkg/adapters/redis"
	"github.com/aretw0/threeview/pkg/adapters/websocket"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scene server",
	Long: `Starts the HTTP server. Browsers connect to /pages/{id}/ws; every page is
built on first visit (the bundled demo scene unless disabled).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if noDemo, _ := cmd.Flags().GetBool("no-demo"); noDemo {
			cfg.Demo.Enabled = false
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}

		if err := serve(cfg); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func serve(cfg config.Config) error {
	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hooks := observability.LogHooks(logger)
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		hooks = observability.Chain(hooks, metrics.Hooks())
	}

	opts := []threeview.Option{
		threeview.WithLogger(logger),
		threeview.WithHooks(hooks),
		threeview.WithHubOptions(
			websocket.WithBuffer(cfg.WebSocket.Buffer),
			websocket.WithWriteTimeout(cfg.WebSocket.WriteTimeout),
			websocket.WithPingInterval(cfg.WebSocket.PingInterval),
			websocket.WithAllowedOrigins(cfg.WebSocket.AllowedOrigins...),
		),
	}

	var presence *redisAdapter.Presence
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		presence = redisAdapter.NewPresence(client,
			redisAdapter.WithPresencePrefix(cfg.Redis.Prefix+"presence:"),
			redisAdapter.WithPresenceTTL(cfg.Redis.PresenceTTL),
		)
		opts = append(opts,
			threeview.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix+"lock:"), cfg.Redis.LockTTL),
			threeview.WithPresence(presence),
		)
		logger.Info("Redis enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Demo.Enabled {
		opts = append(opts,
			threeview.WithBuilder(demo.Build),
			threeview.WithClickHandler(demo.OnClick),
		)
	}

	engine := threeview.New(ctx, opts...)

	hcfg := httpAdapter.Config{
		Pages:  engine.Pages(),
		Hub:    engine.Hub(),
		Logger: logger,
	}
	if presence != nil {
		hcfg.Presence = presence
	}
	if metrics != nil {
		hub := engine.Hub()
		if err := metrics.TrackConnections(func() float64 {
			n := 0
			for _, id := range hub.Pages() {
				n += hub.Count(id)
			}
			return float64(n)
		}); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		hcfg.Metrics = metrics.Handler()
	}
	if cfg.MCP.Enabled {
		baseURL := cfg.MCP.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost" + cfg.Server.Addr
			if !strings.HasPrefix(cfg.Server.Addr, ":") {
				baseURL = "http://" + cfg.Server.Addr
			}
		}
		hcfg.MCP = mcpAdapter.NewServer(engine.Pages()).SSEHandler(baseURL, "/mcp")
	}

	if cfg.Demo.Enabled && cfg.Demo.Animate {
		go demo.Animate(ctx, engine.Pages(), cfg.Demo.Interval, logger)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpAdapter.NewHandler(hcfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting threeview server", "addr", srv.Addr, "shapes", domain.ShapeTypes())
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()

		// Hijacked WebSocket connections are not tracked by Shutdown; the
		// engine cancels their pending deliveries.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "err", err)
			}
		}
		cancel()
		if err := engine.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Pending deliveries abandoned", "err", err)
		}
		logger.Info("threeview server stopped gracefully")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; overrides server.addr")
	serveCmd.Flags().Bool("no-demo", false, "Serve empty pages instead of the demo scene")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}

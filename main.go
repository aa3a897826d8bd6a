package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/qrstudio/api"
	"github.com/openclaw/qrstudio/config"
	"github.com/openclaw/qrstudio/events"
	"github.com/openclaw/qrstudio/form"
	"github.com/openclaw/qrstudio/qr"
	"github.com/openclaw/qrstudio/store"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "qrstudio",
		Short: "QR code generator with a web form and HTTP API",
	}

	// --- start command -------------------------------------------------------
	var configPath string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the QR code web service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(configPath)
		},
	}
	startCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(startCmd)

	// --- generate command ----------------------------------------------------
	opts := qr.DefaultOptions()
	var (
		ec       string
		format   string
		out      string
		terminal bool
	)
	generateCmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate a QR code image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Text = args[0]
			opts.ErrorCorrection = qr.Level(ec)
			opts.Format = qr.Format(format)
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), opts.Normalized(), out, terminal)
		},
	}
	flags := generateCmd.Flags()
	flags.StringVar(&ec, "ec", string(opts.ErrorCorrection), "Error correction level (L, M, Q, H)")
	flags.StringVar(&format, "type", "png", "Image type (png, jpeg, webp)")
	flags.Float64Var(&opts.Quality, "quality", opts.Quality, "JPEG quality between 0 and 1")
	flags.IntVar(&opts.Margin, "margin", opts.Margin, "Quiet zone in modules")
	flags.IntVar(&opts.Width, "width", opts.Width, "Image width in pixels")
	flags.StringVar(&opts.Foreground, "fg", opts.Foreground, "Dark module colour")
	flags.StringVar(&opts.Background, "bg", opts.Background, "Light module colour")
	flags.StringVarP(&out, "out", "o", "", "Output path (default qrcode.<ext>)")
	flags.BoolVar(&terminal, "terminal", false, "Print the code to the terminal instead of writing a file")
	root.AddCommand(generateCmd)

	// --- status command ------------------------------------------------------
	var statusAddr string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), statusAddr)
		},
	}
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8556", "Service HTTP address")
	root.AddCommand(statusCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrstudio %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// runStart is the main service entrypoint that wires all components together.
func runStart(configPath string) error {
	// 1. Load config
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	// 2. Setup logger
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting qrstudio", "version", version, "port", cfg.Port, "data_dir", cfg.DataDir)

	// 3. Open history store
	var history *store.HistoryStore
	if cfg.History {
		history, err = store.NewHistoryStore(cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer history.Close()
	}

	// 4. Create webhook sender
	webhook := events.NewWebhookSender(cfg.WebhookURL, log)
	if webhook.Enabled() {
		log.Info("webhook enabled", "url", cfg.WebhookURL)
	}

	// 5. Encoder and form sessions
	enc := qr.WithLimits(qr.Default, qr.Limits{
		MaxTextLength: cfg.MaxTextLength,
		MaxWidth:      cfg.MaxWidth,
	})
	sessions := form.NewSessions(enc, cfg.Defaults, cfg.SessionTTL.Duration, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions.StartSweeper(ctx, cfg.SweepInterval.Duration)

	// 6. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Sessions:  sessions,
			Encoder:   enc,
			Defaults:  cfg.Defaults,
			History:   history,
			Webhook:   webhook,
			Log:       log,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("qrstudio is running", "url", fmt.Sprintf("http://localhost:%d/", cfg.Port))

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// runGenerate encodes opts once and writes the image to out, or prints the
// symbol when terminal is set.
func runGenerate(ctx context.Context, w io.Writer, opts qr.Options, out string, terminal bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if terminal {
		s, err := qr.Terminal(opts.Text, opts.ErrorCorrection, false)
		if err != nil {
			return err
		}
		fmt.Fprint(w, s)
		return nil
	}

	img, err := qr.Encode(ctx, opts)
	if err != nil {
		return err
	}
	if out == "" {
		out = img.Filename()
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, img.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(w, "wrote %s (%dx%d, %d modules)\n", out, img.Width, img.Width, img.Modules)
	return nil
}

// runStatus queries the service HTTP status endpoint.
func runStatus(w io.Writer, addr string) error {
	resp, err := http.Get(addr + "/status")
	if err != nil {
		return fmt.Errorf("failed to reach qrstudio at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	fmt.Fprintln(w, string(body))
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tasklist/apiclient"
	"tasklist/config"
	"tasklist/export"
	"tasklist/handlers"
	"tasklist/logging"
	"tasklist/store"
	"tasklist/store/pgstore"
	"tasklist/tui"
)

const banner = `
 _            _    _ _     _
| |_ __ _ ___| | _| (_)___| |_
| __/ _' / __| |/ / | / __| __|
| || (_| \__ \   <| | \__ \ |_
 \__\__,_|___/_|\_\_|_|___/\__|
`

func usage() {
	fmt.Println("Usage: tasklist <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                       Start the HTTP server")
	fmt.Println("  migrate                     Create the tasks table")
	fmt.Println("  health  [-url URL]          Check a running server")
	fmt.Println("  export  [-format F] [-o P]  Write the task list as json, csv or pdf")
	fmt.Println("  tui     [-url URL]          Open the terminal client")
	fmt.Println()
	fmt.Println("Every command accepts -config PATH (default $TASKLIST_CONFIG or tasklist.yaml).")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "migrate":
		err = runMigrate(ctx, args)
	case "health":
		err = runHealth(ctx, args)
	case "export":
		err = runExport(ctx, args)
	case "tui":
		err = runTUI(ctx, args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("TASKLIST_CONFIG"); p != "" {
		return p
	}
	return "tasklist.yaml"
}

// commandFlags returns a flag set with the shared -config flag registered.
func commandFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("config", defaultConfigPath(), "path to a YAML or TOML config file")
	return fs, path
}

func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Logging), nil
}

// serverURL turns a listen address such as ":3000" into a URL clients can dial.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runServe(ctx context.Context, args []string) error {
	fs, configPath := commandFlags("serve")
	if err := fs.Parse(args); err != nil {
		return err
	}

	color.New(color.FgCyan).Print(banner)
	fmt.Println()

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", *configPath)
	green.Print("    ▶ ")
	fmt.Printf("Store:   %s\n", cfg.Store.Driver)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n\n", cfg.Server.Addr)

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gin.SetMode(gin.ReleaseMode)
	router, err := handlers.NewRouter(st, logger, handlers.Options{
		ExposeErrorDetails: cfg.API.ExposeErrorDetails,
	})
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context, args []string) error {
	fs, configPath := commandFlags("migrate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if cfg.Store.Driver == config.DriverPostgREST {
		fmt.Println("-- PostgREST cannot create tables; run this in the database SQL editor:")
		fmt.Println(strings.Join(pgstore.Schema, ";\n\n") + ";")
		return nil
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	m, ok := st.(store.Migrator)
	if !ok {
		return fmt.Errorf("driver %s does not support migrations", cfg.Store.Driver)
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	color.Green("✔ schema is up to date (%s)", cfg.Store.Driver)
	return nil
}

func runHealth(ctx context.Context, args []string) error {
	fs, configPath := commandFlags("health")
	url := fs.String("url", "", "server URL (default derived from server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *url == "" {
		*url = serverURL(cfg.Server.Addr)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := apiclient.New(*url, nil).Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs, configPath := commandFlags("export")
	format := fs.String("format", "json", "json, csv or pdf")
	out := fs.String("o", "", "output file (default tasks.<format>, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	tasks, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	doc, err := export.Render(tasks, *format)
	if err != nil {
		return err
	}

	if *out == "-" {
		_, err = os.Stdout.Write(doc.Body)
		return err
	}
	path := *out
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	color.Green("✔ wrote %d tasks to %s", len(tasks), path)
	return nil
}

func runTUI(ctx context.Context, args []string) error {
	fs, configPath := commandFlags("tui")
	url := fs.String("url", "", "server URL (default derived from server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *url == "" {
		cfg, err := config.LoadOrDefault(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		*url = serverURL(cfg.Server.Addr)
	}

	return tui.Run(ctx, apiclient.New(*url, &http.Client{Timeout: 15 * time.Second}))
}

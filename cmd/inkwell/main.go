// ABOUTME: Entry point for the inkwell note service
// ABOUTME: Authenticated HTTPS gateway in front of a local, versioned note store

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/inkwell-notes/inkwell/internal/app"
	"github.com/inkwell-notes/inkwell/internal/auth"
	"github.com/inkwell-notes/inkwell/internal/config"
	"github.com/inkwell-notes/inkwell/internal/device"
	"github.com/inkwell-notes/inkwell/internal/server"
	"github.com/inkwell-notes/inkwell/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _       _                    _ _
 (_)_ __ | | ____      __ ___ | | |
 | | '_ \| |/ /\ \ /\ / / _ \| | |
 | | | | |   <  \ V  V /  __/| | |
 |_|_| |_|_|\_\  \_/\_/ \___||_|_|
`

// getConfigPath returns the path to the inkwell config file.
// Priority: INKWELL_CONFIG env var > XDG_CONFIG_HOME/inkwell/inkwell.yaml > ~/.config/inkwell/inkwell.yaml
func getConfigPath() string {
	if envPath := os.Getenv("INKWELL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "inkwell.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "inkwell", "inkwell.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inkwell <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the note service")
		fmt.Println("  init    Create a default config file")
		fmt.Println("  hash    Print the digest of a device token for the device file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "hash":
		err = runHash()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", getConfigPath(), "path to config file")
	devicesPath := fs.String("devices", "", "path to the authorized device file (overrides config)")
	assetsDir := fs.String("assets", "", "path to the static client directory (overrides config)")
	tlsDir := fs.String("tls-dir", "", "directory containing server.pem and server.key (overrides config)")
	port := fs.Int("port", 0, "HTTPS port (overrides config)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Flag overrides
	if *devicesPath != "" {
		cfg.Devices.Path = *devicesPath
	}
	if *assetsDir != "" {
		cfg.Assets.Dir = *assetsDir
	}
	if *tlsDir != "" {
		cfg.TLS.Dir = *tlsDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Devices:  %s\n", cfg.Devices.Path)
	green.Print("    ▶ ")
	fmt.Printf("Assets:   %s\n", cfg.Assets.Dir)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("HTTPS:    %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	registry, err := device.Load(cfg.Devices.Path)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	logger.Info("device registry loaded", "path", cfg.Devices.Path, "devices", registry.Len())

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening note store: %w", err)
	}
	defer st.Close()

	handler := app.New(st, store.UnsupportedSyncer{}, cfg.Assets.Dir, logger)
	srv := server.New(cfg, registry, handler, logger)

	return srv.Start(ctx)
}

// loadConfig reads the config file if it exists, falling back to defaults
// so a flag-only invocation works.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

const defaultConfig = `# inkwell configuration
server:
  host: "localhost"
  port: 8443

tls:
  # directory containing server.pem and server.key
  dir: "tls"

devices:
  # one authorized device per line: <sha256-hex-digest> <label>
  # generate a digest with: inkwell hash
  path: "devices"

assets:
  dir: "client"

database:
  path: "inkwell.db"

logging:
  level: "info"
  format: "text"
`

func runInit() error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// runHash prints the digest of a device token so an operator can append
// a line to the device file. The token is read from stdin, never from
// argv, so it stays out of shell history and process listings.
func runHash() error {
	fmt.Fprint(os.Stderr, "Token: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimRight(line, "\r\n")
	if token == "" {
		return fmt.Errorf("empty token")
	}

	fmt.Println(auth.Digest(token))
	return nil
}

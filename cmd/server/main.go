package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/config"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/server"
)

func main() {
	fs := pflag.NewFlagSet("cowork-server", pflag.ExitOnError)
	configFile := fs.StringP("config", "c", "", "YAML or TOML config file (env vars still override it)")
	port := fs.StringP("port", "p", "", "Server port")
	host := fs.String("host", "", "Server host")
	root := fs.String("workspace-root", "", "Virtual workspace root")
	backend := fs.String("sandbox", "", "Sandbox backend: auto, bwrap, docker or none")
	idleTTL := fs.Duration("idle-ttl", 0, "Reap sessions idle longer than this (0 disables)")
	dev := fs.Bool("dev", false, "Development mode (colored logs, debug level)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	_ = fs.Parse(os.Args[1:])

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override env and file
	if fs.Changed("port") {
		cfg.Server.Port = *port
	}
	if fs.Changed("host") {
		cfg.Server.Host = *host
	}
	if fs.Changed("workspace-root") {
		cfg.Workspace.Root = *root
	}
	if fs.Changed("sandbox") {
		cfg.Sandbox.Backend = *backend
	}
	if fs.Changed("idle-ttl") {
		cfg.Sessions.IdleTTL = config.Duration(*idleTTL)
	}
	if fs.Changed("dev") {
		cfg.Logging.Development = *dev
		if *dev && !fs.Changed("log-level") {
			cfg.Logging.Level = "debug"
		}
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	case err := <-errChan:
		if err != nil {
			_ = srv.Close()
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// chatdesk - privileged host process for the desktop chat client.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jeranaias/chatdesk/internal/bridge"
	"github.com/jeranaias/chatdesk/internal/catalog"
	"github.com/jeranaias/chatdesk/internal/chatstore"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/files"
	"github.com/jeranaias/chatdesk/internal/ollama"
	"github.com/jeranaias/chatdesk/internal/settings"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.chatdesk/config.toml)")
	host := flag.String("host", "", "bridge bind address (overrides config)")
	port := flag.Int("port", 0, "bridge port (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chatdesk %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("CONFIG_ERROR | %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CONFIG_ERROR | %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("FATAL | %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(cfg *config.Config) error {
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	log.Printf("STARTUP | data_dir=%s version=%s", dataDir, Version)

	chats := chatstore.Open(filepath.Join(dataDir, "chats-database.json"))
	sett := settings.Open(filepath.Join(dataDir, "settings.json"))

	userFiles, err := files.EnsureUserFilesRoot(dataDir)
	if err != nil {
		return fmt.Errorf("prepare user files root: %w", err)
	}

	srv := bridge.NewServer(cfg.Server.Host, cfg.Server.Port, chats, sett).
		WithOllamaClient(ollama.NewClient(cfg.Ollama.URL, time.Duration(cfg.Ollama.TimeoutSecs)*time.Second)).
		WithCatalogClient(catalog.NewClient(cfg.Catalog.URL, time.Duration(cfg.Catalog.TimeoutSecs)*time.Second)).
		WithUserFilesPath(userFiles).
		WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)

	// RELIABILITY: the watcher is best-effort; a platform without inotify
	// support still runs, it just loses storage-changed notifications.
	if cfg.Server.WatchFiles {
		watcher, werr := bridge.NewWatcher(srv.Hub(), chats.Path(), sett.Path())
		if werr != nil {
			log.Printf("WATCHER_DISABLED | error=%v", werr)
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if serr := srv.Start(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("bridge server: %w", err)
	case sig := <-stop:
		log.Printf("SHUTDOWN | signal=%s", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

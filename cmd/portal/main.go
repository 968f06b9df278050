// Command portal runs the cost-control portal server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AdanAlnoor/costportal/internal/config"
	"github.com/AdanAlnoor/costportal/internal/logging"
	"github.com/AdanAlnoor/costportal/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("costportal", config.Version)
		return
	}

	// Optional; deployment environments set real variables instead.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("portal stopped")
}

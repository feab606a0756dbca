package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/config"
	"github.com/gravitas-games/haxagon/internal/logging"
	"github.com/gravitas-games/haxagon/internal/server"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Log, os.Stderr); err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	logrus.WithField("config", configPath).Info("Starting Haxagon server...")

	srv, err := server.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logrus.Infof("Server listening on %s", addr)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logrus.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		logrus.Infof("Received signal %v, shutting down...", sig)
	}

	if err := srv.Shutdown(); err != nil {
		logrus.WithError(err).Error("Error during shutdown")
	}

	logrus.Info("Server stopped")
}

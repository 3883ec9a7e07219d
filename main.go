package main

import (
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-backoffice/bank"
	"go-backoffice/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	service, err := bank.Open(cfg.LedgerFile, cfg.IdentityFile, cfg.AdminPassword, bank.DefaultPolicy(), logger)
	if err != nil {
		logger.Error("cannot open bank service", "err", err)
		os.Exit(1)
	}

	// Gin with default middleware (Logger and Recovery); CORS open so any
	// dashboard front end can talk to the API during development.
	r := gin.Default()
	r.Use(cors.Default())

	srv := &server{bank: service, jwtSecret: []byte(cfg.JWTSecret), tokenTTL: cfg.TokenTTL}
	srv.routes(r)

	logger.Info("back office listening", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

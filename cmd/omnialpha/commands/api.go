package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/api"
	"github.com/xzemt/omnialpha/internal/api/handlers"
	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/data/repos"
	"github.com/xzemt/omnialpha/internal/engine"
	"github.com/xzemt/omnialpha/internal/strategy"
	"github.com/xzemt/omnialpha/pkg/database"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务器",
	Long: `启动 REST API 服务器.

Endpoints:
  GET  /health               - Health check
  GET  /api/strategies       - 策略列表
  POST /api/scan             - 选股扫描 (NDJSON 流)
  GET  /api/scan/results     - 历史扫描结果
  GET  /api/alpha/factors    - 因子目录
  GET  /api/alpha/calculate  - 单因子计算
  GET  /ws/scan              - 选股扫描 (websocket 流)

Example:
  go run ./cmd/omnialpha api
  go run ./cmd/omnialpha api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 端口, 覆盖 PORT 环境变量")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	boot, err := newBootstrap()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer boot.close()

	if apiPort != "" {
		boot.cfg.Port = apiPort
	}
	log := boot.log

	ctx := cmd.Context()
	if err := boot.quotes.Login(ctx); err != nil {
		return fmt.Errorf("quotes gateway login: %w", err)
	}
	defer func() { _ = boot.quotes.Logout(context.Background()) }()

	// Optional match persistence
	var repo contracts.MatchRepository
	if boot.cfg.Database.Enabled {
		db, err := database.New(boot.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		repo = repos.NewMatchRepository(db.Pool)
		log.Info("Connected to database")
	}

	registry := strategy.Registry(boot.quotes)
	eng := engine.New(boot.panels, log)

	scanHandler := handlers.NewScanHandler(eng, registry, boot.quotes, repo, log)
	alphaHandler := handlers.NewAlphaHandler(boot.panels, log)
	router := api.NewRouter(scanHandler, alphaHandler, log)
	server := api.New(boot.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("✅ Server running on http://localhost:%s\n", boot.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/external/quotes"
	"github.com/xzemt/omnialpha/internal/store"
	"github.com/xzemt/omnialpha/pkg/config"
	"github.com/xzemt/omnialpha/pkg/httputil"
	"github.com/xzemt/omnialpha/pkg/logger"
	"github.com/xzemt/omnialpha/pkg/redis"
)

var (
	// Global flags
	envFlag string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "omnialpha",
	Short: "A股量化选股引擎 - 因子计算与策略筛选",
	Long: `omnialpha unified CLI

因子公式引擎 + 多策略选股系统.
日线行情增量缓存, GTJA 风格 alpha 因子, AND 策略筛选.

Usage:
  go run ./cmd/omnialpha [command]

Examples:
  go run ./cmd/omnialpha api
  go run ./cmd/omnialpha scan --pool hs300 --strategies ma,vol
  go run ./cmd/omnialpha alpha calc --code sh.600000 --factor alpha014
  go run ./cmd/omnialpha fetch --pool hs300`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap carries the collaborators every command wires the same way.
type bootstrap struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	quotes *quotes.Client
	panels *store.PanelCache
}

// newBootstrap loads config and builds the shared stack: logger, redis
// (no-op when disabled), the quotes gateway client, and the panel cache.
func newBootstrap() (*bootstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if envFlag != "" {
		cfg.Env = envFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := httputil.NewWithTimeout(log, cfg.Quotes.Timeout)
	if rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, "omnialpha")
		httpClient = httpClient.WithRateLimiter(limiter, redis.QuotesRateLimit)
	}

	cache := redis.NewCache(rdb, "omnialpha")
	quotesClient := quotes.New(cfg, httpClient, cache, log)
	panels := store.NewPanelCache(cfg.Data.Dir, quotesClient, log)

	return &bootstrap{
		cfg:    cfg,
		log:    log,
		redis:  rdb,
		quotes: quotesClient,
		panels: panels,
	}, nil
}

// close releases bootstrap resources.
func (b *bootstrap) close() {
	_ = b.redis.Close()
}

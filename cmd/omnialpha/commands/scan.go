package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/engine"
	"github.com/xzemt/omnialpha/internal/strategy"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "一次性选股扫描, 事件以 NDJSON 输出到 stdout",
	Long: `对一个股票池运行 AND 策略筛选.

Example:
  go run ./cmd/omnialpha scan --pool hs300 --strategies ma,vol
  go run ./cmd/omnialpha scan --pool custom --codes sh.600000,sz.000001 --strategies ma,pe --date 2024-06-03`,
	RunE: runScan,
}

var (
	scanDate       string
	scanPool       string
	scanCodes      []string
	scanStrategies []string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanDate, "date", "", "扫描日期 YYYY-MM-DD, 默认今天")
	scanCmd.Flags().StringVar(&scanPool, "pool", "hs300", "股票池 (hs300|zz1000|test|custom)")
	scanCmd.Flags().StringSliceVar(&scanCodes, "codes", nil, "custom 池的股票代码")
	scanCmd.Flags().StringSliceVar(&scanStrategies, "strategies", []string{"ma"}, "策略键, 按顺序 AND")
}

func runScan(cmd *cobra.Command, args []string) error {
	boot, err := newBootstrap()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer boot.close()
	ctx := cmd.Context()

	date := time.Now()
	if scanDate != "" {
		date, err = time.Parse("2006-01-02", scanDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", scanDate)
		}
	}

	registry := strategy.Registry(boot.quotes)
	evaluators := strategy.Select(registry, scanStrategies)
	if len(evaluators) != len(scanStrategies) {
		return fmt.Errorf("unknown strategy in %s, known: %s",
			strings.Join(scanStrategies, ","), strings.Join(strategy.Keys(registry), ","))
	}

	if err := boot.quotes.Login(ctx); err != nil {
		return fmt.Errorf("quotes gateway login: %w", err)
	}
	defer func() { _ = boot.quotes.Logout(ctx) }()

	var pool []contracts.PoolMember
	switch scanPool {
	case "custom":
		for _, code := range scanCodes {
			pool = append(pool, contracts.PoolMember{Code: code})
		}
		if len(pool) == 0 {
			return fmt.Errorf("--pool custom requires --codes")
		}
	case "test":
		pool = []contracts.PoolMember{
			{Code: "sh.600000", Name: "浦发银行"},
			{Code: "sz.000001", Name: "平安银行"},
		}
	default:
		pool, err = boot.quotes.GetPoolMembers(ctx, scanPool, date)
		if err != nil {
			return fmt.Errorf("resolve pool %s: %w", scanPool, err)
		}
	}

	eng := engine.New(boot.panels, boot.log)
	enc := json.NewEncoder(os.Stdout)
	_, err = eng.Scan(ctx, pool, date, evaluators, func(ev interface{}) {
		_ = enc.Encode(ev)
	})
	return err
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/engine"
)

// fetchCmd warms the panel cache for a pool
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "预热股票池的行情缓存",
	Long: `拉取股票池内全部标的的日线并写入本地缓存.
已缓存的区间不会重复请求.

Example:
  go run ./cmd/omnialpha fetch --pool hs300
  go run ./cmd/omnialpha fetch --pool custom --codes sh.600000,sh.600519`,
	RunE: runFetch,
}

var (
	fetchPool  string
	fetchCodes []string
	fetchDays  int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchPool, "pool", "hs300", "股票池 (hs300|zz1000|custom)")
	fetchCmd.Flags().StringSliceVar(&fetchCodes, "codes", nil, "custom 池的股票代码")
	fetchCmd.Flags().IntVar(&fetchDays, "days", engine.LookbackDays, "回看天数")
}

func runFetch(cmd *cobra.Command, args []string) error {
	boot, err := newBootstrap()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer boot.close()
	ctx := cmd.Context()

	if err := boot.quotes.Login(ctx); err != nil {
		return fmt.Errorf("quotes gateway login: %w", err)
	}
	defer func() { _ = boot.quotes.Logout(ctx) }()

	end := time.Now()
	var pool []contracts.PoolMember
	if fetchPool == "custom" {
		for _, code := range fetchCodes {
			pool = append(pool, contracts.PoolMember{Code: code})
		}
		if len(pool) == 0 {
			return fmt.Errorf("--pool custom requires --codes")
		}
	} else {
		pool, err = boot.quotes.GetPoolMembers(ctx, fetchPool, end)
		if err != nil {
			return fmt.Errorf("resolve pool %s: %w", fetchPool, err)
		}
	}

	start := end.AddDate(0, 0, -fetchDays)
	ok, failed := 0, 0
	for _, member := range pool {
		if err := ctx.Err(); err != nil {
			return err
		}
		panel, err := boot.panels.GetPanel(ctx, member.Code, start, end)
		if err != nil {
			failed++
			boot.log.WithError(err).WithField("code", member.Code).Warn("fetch failed")
			continue
		}
		ok++
		if verbose {
			fmt.Printf("%s: %d bars\n", member.Code, panel.Len())
		}
	}

	fmt.Printf("✅ cached %d assets (%d failed) under %s/panels\n", ok, failed, boot.cfg.Data.Dir)
	return nil
}

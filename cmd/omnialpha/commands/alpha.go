package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/alpha"
)

// alphaCmd groups the factor-engine commands
var alphaCmd = &cobra.Command{
	Use:   "alpha",
	Short: "因子计算",
}

// alphaListCmd prints the factor catalog
var alphaListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出因子目录",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range alpha.List() {
			fmt.Printf("%-10s lookback=%-3d %s\n", d.Key, d.Lookback, d.Description)
		}
	},
}

// alphaCalcCmd computes one factor for one asset
var alphaCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "计算单个因子",
	Long: `计算一个因子在近期区间的取值.

Example:
  go run ./cmd/omnialpha alpha calc --code sh.600000 --factor alpha014 --days 60`,
	RunE: runAlphaCalc,
}

// alphaGenerateCmd writes the full catalog's artifacts for one asset-year
var alphaGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成整个目录的因子 CSV",
	Long: `对一个标的按年生成全部因子的 CSV 文件.

Example:
  go run ./cmd/omnialpha alpha generate --code sh.600000 --year 2024`,
	RunE: runAlphaGenerate,
}

var (
	alphaCode   string
	alphaFactor string
	alphaDays   int
	alphaYear   int
)

func init() {
	rootCmd.AddCommand(alphaCmd)
	alphaCmd.AddCommand(alphaListCmd)
	alphaCmd.AddCommand(alphaCalcCmd)
	alphaCmd.AddCommand(alphaGenerateCmd)

	alphaCalcCmd.Flags().StringVar(&alphaCode, "code", "", "股票代码, 如 sh.600000")
	alphaCalcCmd.Flags().StringVar(&alphaFactor, "factor", "", "因子键, 如 alpha014")
	alphaCalcCmd.Flags().IntVar(&alphaDays, "days", 250, "回看天数")
	_ = alphaCalcCmd.MarkFlagRequired("code")
	_ = alphaCalcCmd.MarkFlagRequired("factor")

	alphaGenerateCmd.Flags().StringVar(&alphaCode, "code", "", "股票代码")
	alphaGenerateCmd.Flags().IntVar(&alphaYear, "year", time.Now().Year(), "目标年份")
	_ = alphaGenerateCmd.MarkFlagRequired("code")
}

func runAlphaCalc(cmd *cobra.Command, args []string) error {
	boot, err := newBootstrap()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer boot.close()
	ctx := cmd.Context()

	if _, ok := alpha.Get(alphaFactor); !ok {
		return fmt.Errorf("unknown factor %q, see: omnialpha alpha list", alphaFactor)
	}

	if err := boot.quotes.Login(ctx); err != nil {
		return fmt.Errorf("quotes gateway login: %w", err)
	}
	defer func() { _ = boot.quotes.Logout(ctx) }()

	end := time.Now()
	panel, err := boot.panels.GetPanel(ctx, alphaCode, end.AddDate(0, 0, -alphaDays), end)
	if err != nil {
		return err
	}
	if panel.Len() == 0 {
		return fmt.Errorf("no data for %s", alphaCode)
	}

	values, err := alpha.Compute(alphaFactor, panel)
	if err != nil {
		return err
	}
	dates := panel.Dates()
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		fmt.Printf("%s %.6f\n", dates[i].Format("2006-01-02"), values[i])
	}
	return nil
}

func runAlphaGenerate(cmd *cobra.Command, args []string) error {
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

	// pull the year plus enough prior history to warm every lookback
	start := time.Date(alphaYear-1, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(alphaYear, 12, 31, 0, 0, 0, 0, time.UTC)
	if now := time.Now(); end.After(now) {
		end = now
	}

	panel, err := boot.panels.GetPanel(ctx, alphaCode, start, end)
	if err != nil {
		return err
	}
	if panel.Len() == 0 {
		return fmt.Errorf("no data for %s in %d", alphaCode, alphaYear)
	}

	table, err := alpha.RunAll(ctx, panel, nil)
	if err != nil {
		return err
	}
	for key, ferr := range table.Failures {
		boot.log.WithError(ferr).WithField("factor", key).Warn("factor failed, column is NaN")
	}

	if err := alpha.WriteArtifacts(boot.cfg.Data.Dir, alphaCode, table); err != nil {
		return err
	}
	fmt.Printf("✅ wrote %d factor files under %s/alphas/%s\n", len(table.Keys), boot.cfg.Data.Dir, alphaCode)
	return nil
}

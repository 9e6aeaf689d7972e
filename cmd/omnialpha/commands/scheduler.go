package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xzemt/omnialpha/internal/scheduler"
	"github.com/xzemt/omnialpha/internal/scheduler/jobs"
)

// schedulerCmd runs the cron scheduler
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "启动定时任务调度器",
	Long: `常驻运行定时任务.

Jobs:
  panel_refresh - 每日 17:30 收盘后刷新默认股票池的行情缓存

Example:
  go run ./cmd/omnialpha scheduler
  go run ./cmd/omnialpha scheduler --run-now panel_refresh`,
	RunE: runScheduler,
}

var runNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&runNow, "run-now", "", "启动后立即触发一次指定任务")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	boot, err := newBootstrap()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer boot.close()

	if err := boot.quotes.Login(cmd.Context()); err != nil {
		return fmt.Errorf("quotes gateway login: %w", err)
	}
	defer func() { _ = boot.quotes.Logout(cmd.Context()) }()

	sched := scheduler.New(boot.log)
	refresh := jobs.NewPanelRefreshJob(boot.cfg.Pools.DefaultPool, boot.quotes, boot.panels, boot.log)
	if err := sched.AddJob(refresh); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if runNow != "" {
		if err := sched.RunJob(runNow); err != nil {
			return err
		}
	}

	fmt.Println("✅ scheduler running, press Ctrl+C to stop")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}

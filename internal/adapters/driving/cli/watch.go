package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/watch"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/services"
	"github.com/custodia-labs/ndavault/internal/logger"
)

var (
	watchRescanInterval time.Duration
	watchScanInterval   time.Duration
	watchNoScheduler    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch an inbox directory for contracts",
	Long: `Uploads PDF and DOCX files as they appear or change in a directory.

While watching, background tasks rescan the inbox for missed files and log
contracts that are near expiration or expired. Interrupted processing from
a previous run is resumed at startup. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	defaults := domain.DefaultSchedulerConfig()
	watchCmd.Flags().DurationVar(&watchRescanInterval, "rescan-interval",
		defaults.GetTaskConfig(domain.TaskIDInboxRescan).Interval, "how often the inbox is rescanned")
	watchCmd.Flags().DurationVar(&watchScanInterval, "scan-interval",
		defaults.GetTaskConfig(domain.TaskIDExpirationScan).Interval, "how often expirations are checked")
	watchCmd.Flags().BoolVar(&watchNoScheduler, "no-scheduler", false, "disable the background tasks")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox %s is not a directory", dir)
	}

	ctx := commandContext(cmd)
	if r, ok := documentService.(recoverer); ok {
		if n, err := r.Recover(ctx); err != nil {
			logger.Warn("Recover: %v", err)
		} else if n > 0 {
			cmd.Printf("Recovered %d documents from a previous run.\n", n)
		}
	}

	watcher := watch.NewInboxWatcher(dir, documentService)
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(gctx)
	})

	if !watchNoScheduler && schedulerStore != nil {
		scheduler := newWatchScheduler(watcher)
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	}

	err = g.Wait()
	documentService.Wait()
	return err
}

// newWatchScheduler builds the scheduler for the expiration scan and the
// inbox rescan.
func newWatchScheduler(watcher *watch.InboxWatcher) *services.Scheduler {
	config := domain.SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDExpirationScan: {Enabled: watchScanInterval > 0, Interval: watchScanInterval},
			domain.TaskIDInboxRescan:    {Enabled: watchRescanInterval > 0, Interval: watchRescanInterval},
		},
	}

	scheduler := services.NewScheduler(config, schedulerStore)
	scheduler.RegisterReport(domain.TaskIDExpirationScan, "Expiration scan", services.ExpirationScanTask(documentService))
	scheduler.Register(domain.TaskIDInboxRescan, "Inbox rescan", watcher.Rescan)
	return scheduler
}

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

var (
	expiringThreshold int
	expiringAll       bool
	expiringJSON      bool
	expiringHistory   int
)

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "Report contracts near or past expiration",
	Long: `Classifies every contract by its expiration date.

By default only near-expiration and expired contracts are listed; use --all
to include active and undated ones. --history shows the counts recorded by
the scheduled expiration scan of "ndavault watch" instead.`,
	Args: cobra.NoArgs,
	RunE: runExpiring,
}

func init() {
	expiringCmd.Flags().IntVarP(&expiringThreshold, "threshold", "t", 0, "near-expiration window in days (0 = configured)")
	expiringCmd.Flags().BoolVarP(&expiringAll, "all", "a", false, "include active and undated contracts")
	expiringCmd.Flags().BoolVar(&expiringJSON, "json", false, "output as JSON")
	expiringCmd.Flags().IntVar(&expiringHistory, "history", 0, "show the last N scheduled expiration scans")
	rootCmd.AddCommand(expiringCmd)
}

func runExpiring(cmd *cobra.Command, _ []string) error {
	if expiringHistory > 0 {
		return runExpiringHistory(cmd, expiringHistory)
	}
	if documentService == nil {
		return errors.New("document service not configured")
	}

	now := time.Now()
	report, err := documentService.ExpirationReport(commandContext(cmd), now)
	if err != nil {
		return fmt.Errorf("failed to build expiration report: %w", err)
	}
	if expiringThreshold > 0 {
		reclassify(report, now, expiringThreshold)
	}

	entries := report.Entries
	if !expiringAll {
		entries = append(report.ByClass(domain.ExpirationPassed), report.ByClass(domain.ExpirationNear)...)
	}

	if expiringJSON {
		return printJSON(cmd, expirationJSON(report, entries))
	}

	if len(entries) == 0 {
		cmd.Printf("No contracts expire within %d days.\n", report.ThresholdDays)
		return nil
	}

	cmd.Println(styles.Title.Render(fmt.Sprintf("Expiration report (%d-day window)", report.ThresholdDays)))
	cmd.Println()
	for i := range entries {
		e := &entries[i]
		style := styles.ForExpiration(e.Class)
		cmd.Printf("  %-16s %s\n", style.Render(e.Class.Description()), e.Filename)
		if e.ExpirationDate != nil {
			cmd.Printf("  %-16s expires %s (%s)\n", "", e.ExpirationDate.Format(domain.FactDateLayout), daysLabel(*e.DaysRemaining))
		}
		cmd.Printf("  %-16s workflow %s\n", "", e.WorkflowStatus)
	}

	counts := report.Counts()
	cmd.Println()
	cmd.Printf("Expired: %d, near expiration: %d, active: %d, no date: %d\n",
		counts[domain.ExpirationPassed], counts[domain.ExpirationNear],
		counts[domain.ExpirationActive], counts[domain.ExpirationNoDate])
	return nil
}

// runExpiringHistory prints recent expiration scans and the last one that
// succeeded, which retention always keeps.
func runExpiringHistory(cmd *cobra.Command, n int) error {
	if schedulerStore == nil {
		return errors.New("scheduler store not configured")
	}
	ctx := commandContext(cmd)

	history, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDExpirationScan, n)
	if err != nil {
		return fmt.Errorf("failed to read scan history: %w", err)
	}
	last, err := schedulerStore.LastSuccessfulResult(ctx, domain.TaskIDExpirationScan)
	if err != nil {
		return fmt.Errorf("failed to read scan history: %w", err)
	}

	if expiringJSON {
		out := scanHistoryJSON{Scans: make([]scanJSON, 0, len(history))}
		for i := range history {
			out.Scans = append(out.Scans, toScanJSON(&history[i]))
		}
		if last != nil {
			s := toScanJSON(last)
			out.LastSuccess = &s
		}
		return printJSON(cmd, out)
	}

	if len(history) == 0 {
		cmd.Println("No expiration scans recorded. Run \"ndavault watch\" to schedule them.")
		return nil
	}

	cmd.Println(styles.Title.Render("Expiration scans"))
	cmd.Println()
	for i := range history {
		printScan(cmd, &history[i])
	}
	if last != nil && !history[0].Success {
		cmd.Println()
		cmd.Println(styles.Muted.Render("Last successful scan:"))
		printScan(cmd, last)
	}
	return nil
}

func printScan(cmd *cobra.Command, r *domain.TaskResult) {
	when := r.StartedAt.Local().Format(timeLayout)
	if !r.Success {
		cmd.Printf("  %s  %s %s\n", when, styles.Error.Render("failed"), r.Error)
		return
	}
	cmd.Printf("  %s  expired %d, near %d, active %d, no date %d\n", when,
		r.Counts[domain.ExpirationPassed.String()], r.Counts[domain.ExpirationNear.String()],
		r.Counts[domain.ExpirationActive.String()], r.Counts[domain.ExpirationNoDate.String()])
}

type scanJSON struct {
	StartedAt string         `json:"started_at"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Flagged   int            `json:"flagged"`
	Counts    map[string]int `json:"counts,omitempty"`
}

type scanHistoryJSON struct {
	Scans       []scanJSON `json:"scans"`
	LastSuccess *scanJSON  `json:"last_success,omitempty"`
}

func toScanJSON(r *domain.TaskResult) scanJSON {
	return scanJSON{
		StartedAt: r.StartedAt.UTC().Format(time.RFC3339),
		Success:   r.Success,
		Error:     r.Error,
		Flagged:   r.ItemsProcessed,
		Counts:    r.Counts,
	}
}

// reclassify applies a different near-expiration window to a report.
func reclassify(report *domain.ExpirationReport, now time.Time, threshold int) {
	report.ThresholdDays = threshold
	for i := range report.Entries {
		report.Entries[i].Class = domain.ClassifyExpiration(now, report.Entries[i].ExpirationDate, threshold)
	}
}

func daysLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

type expirationEntryJSON struct {
	Filename       string `json:"filename"`
	Class          string `json:"class"`
	WorkflowStatus string `json:"workflow_status"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	DaysRemaining  *int   `json:"days_remaining,omitempty"`
}

type expirationReportJSON struct {
	GeneratedAt   string                `json:"generated_at"`
	ThresholdDays int                   `json:"threshold_days"`
	Entries       []expirationEntryJSON `json:"entries"`
}

func expirationJSON(report *domain.ExpirationReport, entries []domain.ExpirationEntry) expirationReportJSON {
	out := expirationReportJSON{
		GeneratedAt:   report.GeneratedAt.UTC().Format(time.RFC3339),
		ThresholdDays: report.ThresholdDays,
		Entries:       make([]expirationEntryJSON, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		row := expirationEntryJSON{
			Filename:       e.Filename,
			Class:          e.Class.String(),
			WorkflowStatus: e.WorkflowStatus.String(),
			DaysRemaining:  e.DaysRemaining,
		}
		if e.ExpirationDate != nil {
			row.ExpirationDate = e.ExpirationDate.Format(domain.FactDateLayout)
		}
		out.Entries = append(out.Entries, row)
	}
	return out
}

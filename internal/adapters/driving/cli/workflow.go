package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Manage contract workflow status",
	Long: `Moves contracts through review and signature states.

Workflow status is independent of processing: reprocessing a document never
changes it.`,
}

var workflowSetCmd = &cobra.Command{
	Use:   "set [filename] [status]",
	Short: "Set the workflow status directly",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowSet,
}

var workflowApplyCmd = &cobra.Command{
	Use:   "apply [filename] [event]",
	Short: "Apply a workflow event",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowApply,
}

var workflowStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List workflow statuses and events",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		skipWiring: "true",
	},
	RunE: runWorkflowStatuses,
}

var workflowMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite legacy default workflow statuses",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowMigrate,
}

func init() {
	workflowCmd.AddCommand(workflowSetCmd)
	workflowCmd.AddCommand(workflowApplyCmd)
	workflowCmd.AddCommand(workflowStatusesCmd)
	workflowCmd.AddCommand(workflowMigrateCmd)
	rootCmd.AddCommand(workflowCmd)
}

func runWorkflowSet(cmd *cobra.Command, args []string) error {
	if workflowService == nil {
		return errors.New("workflow service not configured")
	}

	status, err := domain.ParseWorkflowStatus(args[1])
	if err != nil {
		return err
	}

	rec, err := workflowService.SetStatus(commandContext(cmd), args[0], status)
	if err != nil {
		return fmt.Errorf("failed to set workflow status: %w", err)
	}

	cmd.Printf("%s is now %s\n", rec.Filename, rec.WorkflowStatus)
	return nil
}

func runWorkflowApply(cmd *cobra.Command, args []string) error {
	if workflowService == nil {
		return errors.New("workflow service not configured")
	}

	event := domain.WorkflowEvent(strings.ToLower(strings.TrimSpace(args[1])))
	rec, err := workflowService.Apply(commandContext(cmd), args[0], event)
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", args[1], err)
	}

	cmd.Printf("%s is now %s\n", rec.Filename, rec.WorkflowStatus)
	return nil
}

func runWorkflowStatuses(cmd *cobra.Command, _ []string) error {
	cmd.Println(styles.Title.Render("Statuses"))
	for _, s := range domain.AllWorkflowStatuses() {
		if s.IsLegacy() {
			cmd.Printf("  %s %s\n", s, styles.Muted.Render("(legacy)"))
			continue
		}
		cmd.Printf("  %s\n", s)
	}

	cmd.Println()
	cmd.Println(styles.Title.Render("Events"))
	for _, e := range domain.WorkflowEvents() {
		target, _ := e.Target()
		cmd.Printf("  %-26s -> %s\n", e, target)
	}
	return nil
}

func runWorkflowMigrate(cmd *cobra.Command, _ []string) error {
	if workflowService == nil {
		return errors.New("workflow service not configured")
	}

	n, err := workflowService.MigrateLegacyDefaults(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to migrate workflow statuses: %w", err)
	}

	cmd.Printf("Migrated %d records.\n", n)
	return nil
}

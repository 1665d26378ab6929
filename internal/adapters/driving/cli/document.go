package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04:05"

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload contracts",
	Long: `Uploads PDF or DOCX contracts and processes them.

Uploading a file whose name already exists replaces the stored contract and
reprocesses it. Uploads are refused while that document is still processing.

Processing runs inside this command, so it does not exit before processing
ends. --no-wait only skips the per-document report. Use "ndavault watch" or
"ndavault mcp" to keep ingesting in a long-running process.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage uploaded documents",
	Long:  `List, view, delete, or reprocess uploaded contracts.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [filename]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete a document",
	Long:  `Removes the record, the stored file, its fragments and their embeddings.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [filename]",
	Short: "Reprocess a document",
	Long: `Re-runs extraction, embedding and fact extraction on a processed or failed document.

The command exits once processing ends, with or without --no-wait.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReprocess,
}

var documentFragmentsCmd = &cobra.Command{
	Use:   "fragments [filename]",
	Short: "Print document fragments",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentFragments,
}

var documentRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Resume interrupted processing",
	Long: `Resumes pending documents and marks documents whose processing was
interrupted as failed so they can be reprocessed.`,
	Args: cobra.NoArgs,
	RunE: runDocumentRecover,
}

var (
	uploadNoWait bool
	documentJSON bool
)

const noWaitUsage = "skip the per-document report (processing still finishes before exit)"

func init() {
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, noWaitUsage)
	documentReprocessCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, noWaitUsage)
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentGetCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	documentCmd.AddCommand(documentFragmentsCmd)
	documentCmd.AddCommand(documentRecoverCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(documentCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ctx := commandContext(cmd)

	var accepted []string
	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		rec, err := documentService.Upload(ctx, filepath.Base(path), data)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("Accepted %s (%s)\n", rec.Filename, rec.ProcessingStatus.DisplayStatus())
		accepted = append(accepted, rec.Filename)
	}

	if len(accepted) > 0 {
		if uploadNoWait {
			cmd.Println(styles.Muted.Render("Processing finishes before the command exits."))
		} else {
			documentService.Wait()
			for _, name := range accepted {
				printOutcome(cmd, name)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

// printOutcome reports the processing result of a finished task.
func printOutcome(cmd *cobra.Command, filename string) {
	view, err := documentService.View(commandContext(cmd), filename)
	if err != nil {
		cmd.PrintErrf("%s: %v\n", filename, err)
		return
	}
	status := view.DisplayStatus
	line := fmt.Sprintf("%s: %s", filename, styles.ForProcessing(status).Render(status.String()))
	if status == domain.StatusFailed && view.Record.LastError != "" {
		line += " (" + view.Record.LastError + ")"
	} else {
		line += fmt.Sprintf(", %d fragments, %s", view.FragmentCount, view.Expiration.Description())
	}
	cmd.Println(line)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	ctx := commandContext(cmd)

	recs, err := documentService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	views := make([]*driving.DocumentView, 0, len(recs))
	for i := range recs {
		view, err := documentService.View(ctx, recs[i].Filename)
		if err != nil {
			// Deleted between List and View.
			continue
		}
		views = append(views, view)
	}

	if documentJSON {
		return printJSON(cmd, viewsJSON(views))
	}

	if len(views) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Println(styles.Title.Render("Documents"))
	cmd.Println()
	for _, v := range views {
		cmd.Printf("  %s\n", v.Record.Filename)
		cmd.Printf("    Status:     %s\n", styles.ForProcessing(v.DisplayStatus).Render(v.DisplayStatus.String()))
		cmd.Printf("    Workflow:   %s\n", v.Record.WorkflowStatus)
		cmd.Printf("    Expiration: %s\n", styles.ForExpiration(v.Expiration).Render(expirationLabel(v)))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(views))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	view, err := documentService.View(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, viewJSON(view))
	}

	rec := view.Record
	cmd.Printf("Document: %s\n\n", rec.Filename)
	cmd.Printf("  Status:      %s\n", styles.ForProcessing(view.DisplayStatus).Render(view.DisplayStatus.String()))
	cmd.Printf("  Workflow:    %s\n", rec.WorkflowStatus)
	cmd.Printf("  Expiration:  %s\n", styles.ForExpiration(view.Expiration).Render(expirationLabel(view)))
	cmd.Printf("  Fragments:   %d\n", view.FragmentCount)
	cmd.Printf("  Size:        %d bytes\n", rec.Size)
	cmd.Printf("  Created:     %s\n", rec.CreatedAt.Format(timeLayout))
	cmd.Printf("  Updated:     %s\n", rec.UpdatedAt.Format(timeLayout))
	if rec.ProcessedAt != nil {
		cmd.Printf("  Processed:   %s\n", rec.ProcessedAt.Format(timeLayout))
	}
	if rec.LastError != "" {
		cmd.Printf("  Last error:  %s\n", styles.Error.Render(rec.LastError))
	}

	if len(rec.Facts) > 0 {
		cmd.Println("\n  Facts:")
		for _, k := range sortedKeys(rec.Facts) {
			cmd.Printf("    %s: %s\n", k, rec.Facts[k])
		}
	}

	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	rec, err := documentService.Reprocess(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}
	cmd.Printf("Reprocessing %s...\n", rec.Filename)

	if !uploadNoWait {
		documentService.Wait()
		printOutcome(cmd, rec.Filename)
	}
	return nil
}

func runDocumentFragments(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	frags, err := documentService.Fragments(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get fragments: %w", err)
	}

	if len(frags) == 0 {
		cmd.Println("No fragments.")
		return nil
	}
	for i := range frags {
		cmd.Println(styles.Muted.Render(fmt.Sprintf("[%d] %s", frags[i].Position, frags[i].ID)))
		cmd.Println(frags[i].Content)
		cmd.Println()
	}
	return nil
}

func runDocumentRecover(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	r, ok := documentService.(recoverer)
	if !ok {
		return errors.New("document service does not support recovery")
	}

	n, err := r.Recover(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to recover: %w", err)
	}
	documentService.Wait()

	cmd.Printf("Recovered %d documents.\n", n)
	return nil
}

// expirationLabel describes the expiration of a document for humans.
func expirationLabel(v *driving.DocumentView) string {
	if v.ExpirationDate == nil || v.DaysRemaining == nil {
		return v.Expiration.Description()
	}
	days := *v.DaysRemaining
	date := v.ExpirationDate.Format(domain.FactDateLayout)
	switch {
	case days < 0:
		return fmt.Sprintf("%s (%s, %d days ago)", v.Expiration.Description(), date, -days)
	case days == 0:
		return fmt.Sprintf("%s (%s, today)", v.Expiration.Description(), date)
	default:
		return fmt.Sprintf("%s (%s, in %d days)", v.Expiration.Description(), date, days)
	}
}

// documentJSONView is the JSON shape of a document view.
type documentJSONView struct {
	Filename         string            `json:"filename"`
	ProcessingStatus string            `json:"processing_status"`
	WorkflowStatus   string            `json:"workflow_status"`
	Expiration       string            `json:"expiration"`
	ExpirationDate   string            `json:"expiration_date,omitempty"`
	DaysRemaining    *int              `json:"days_remaining,omitempty"`
	Fragments        int               `json:"fragments"`
	Facts            map[string]string `json:"facts,omitempty"`
	LastError        string            `json:"last_error,omitempty"`
}

func viewJSON(v *driving.DocumentView) documentJSONView {
	out := documentJSONView{
		Filename:         v.Record.Filename,
		ProcessingStatus: v.DisplayStatus.String(),
		WorkflowStatus:   v.Record.WorkflowStatus.String(),
		Expiration:       v.Expiration.String(),
		DaysRemaining:    v.DaysRemaining,
		Fragments:        v.FragmentCount,
		Facts:            v.Record.Facts,
		LastError:        v.Record.LastError,
	}
	if v.ExpirationDate != nil {
		out.ExpirationDate = v.ExpirationDate.Format(domain.FactDateLayout)
	}
	return out
}

func viewsJSON(views []*driving.DocumentView) []documentJSONView {
	out := make([]documentJSONView, 0, len(views))
	for _, v := range views {
		out = append(out, viewJSON(v))
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/facts/heuristic"
	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/services"
	"github.com/custodia-labs/ndavault/internal/normalisers"
	"github.com/custodia-labs/ndavault/internal/postprocessors/chunker"
)

// expiredNDA expired on 2022-03-01 (effective date plus term).
const expiredNDA = `MUTUAL NON-DISCLOSURE AGREEMENT

This Mutual Non-Disclosure Agreement is entered into as of March 1, 2020
between Acme Corp ("Discloser") and Globex LLC ("Recipient").

1. Term. This Agreement shall remain in effect for a term of two (2) years.

7. Governing Law. This Agreement shall be governed by and construed in
accordance with the laws of the State of New York.`

// plainTextNormaliser treats uploads as plain text so tests need no PDF fixtures.
type plainTextNormaliser struct{}

func (plainTextNormaliser) Extensions() []string { return []string{".pdf", ".docx"} }

func (plainTextNormaliser) Normalise(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}

// setupTestServices installs services backed by in-memory stores and
// returns a function restoring the previous ones.
func setupTestServices() func() {
	oldDocs, oldSearch := documentService, searchService
	oldSettings, oldWorkflow, oldScheduler := settingsService, workflowService, schedulerStore

	settings := domain.DefaultAppSettings()
	records := memory.NewRecordStore()
	fragments := memory.NewFragmentStore()

	registry := normalisers.NewRegistry(chunker.New())
	registry.Register(plainTextNormaliser{})

	docs := services.NewDocumentService(records, fragments, memory.NewBlobStore(), registry, heuristic.New(), settings)

	documentService = docs
	searchService = services.NewSearchService(fragments, nil, nil, settings.Search)
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	workflowService = services.NewWorkflowService(records)
	schedulerStore = memory.NewSchedulerStore()

	return func() {
		docs.Wait()
		documentService, searchService = oldDocs, oldSearch
		settingsService, workflowService, schedulerStore = oldSettings, oldWorkflow, oldScheduler
	}
}

// executeCommand runs the root command and returns its combined output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeContract writes a contract file into a temp dir and returns its path.
func writeContract(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// uploadContract uploads content under name and waits for processing.
func uploadContract(t *testing.T, name, content string) {
	t.Helper()
	_, err := documentService.Upload(context.Background(), name, []byte(content))
	require.NoError(t, err)
	documentService.Wait()
}

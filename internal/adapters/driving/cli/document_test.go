package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range documentCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"list", "get", "delete", "reprocess", "fragments", "recover"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestUploadCmd_RequiresArgs(t *testing.T) {
	_, err := executeCommand("upload")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestUploadCmd_ProcessesContract(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeContract(t, "green_nda.pdf", expiredNDA)
	out, err := executeCommand("upload", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Accepted green_nda.pdf (pending)")
	assert.Contains(t, out, "green_nda.pdf:")
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "Expired")

	rec, err := documentService.Get(context.Background(), "green_nda.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, rec.ProcessingStatus)
	assert.Equal(t, "2022-03-01", rec.Facts[domain.FactExpirationDate])
}

func TestUploadCmd_NoWaitSkipsReport(t *testing.T) {
	cleanup := setupTestServices()

	path := writeContract(t, "green_nda.pdf", expiredNDA)
	out, err := executeCommand("upload", "--no-wait", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Accepted green_nda.pdf (pending)")
	assert.Contains(t, out, "Processing finishes before the command exits.")
	assert.NotContains(t, out, "Expired")

	// releasing the services waits for the task, as the real command does on exit
	docs := documentService
	cleanup()
	rec, err := docs.Get(context.Background(), "green_nda.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, rec.ProcessingStatus)
}

func TestUploadCmd_NoWaitHelpSaysProcessingFinishes(t *testing.T) {
	for _, cmd := range []*cobra.Command{uploadCmd, documentReprocessCmd} {
		flag := cmd.Flags().Lookup("no-wait")
		require.NotNil(t, flag, cmd.Name())
		assert.Contains(t, flag.Usage, "processing still finishes before exit")
	}
	assert.Contains(t, uploadCmd.Long, "does not exit before processing")
}

func TestUploadCmd_RejectsUnsupportedType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeContract(t, "notes.txt", "hello")
	out, err := executeCommand("upload", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 uploads failed")
	assert.Contains(t, out, "notes.txt")
}

func TestUploadCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("upload", "/does/not/exist.pdf")

	assert.Error(t, err)
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocumentListCmd_ShowsDocuments(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "green_nda.pdf")
	assert.Contains(t, out, "Workflow:   created")
	assert.Contains(t, out, "2022-03-01")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "list", "--json")
	require.NoError(t, err)

	var views []documentJSONView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "green_nda.pdf", views[0].Filename)
	assert.Equal(t, "processed", views[0].ProcessingStatus)
	assert.Equal(t, "expired", views[0].Expiration)
	assert.Equal(t, "2022-03-01", views[0].ExpirationDate)
	assert.Equal(t, "Acme Corp", views[0].Facts[domain.FactPartyA])
}

func TestDocumentGetCmd_ShowsFacts(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "get", "green_nda.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: green_nda.pdf")
	assert.Contains(t, out, "Facts:")
	assert.Contains(t, out, "governing_law: New York")
	assert.Contains(t, out, "party_b: Globex LLC")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("document", "get", "missing.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDeleteCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "delete", "green_nda.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Document green_nda.pdf deleted.")

	_, err = documentService.Get(context.Background(), "green_nda.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentReprocessCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "reprocess", "green_nda.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Reprocessing green_nda.pdf...")
	assert.Contains(t, out, "processed")
}

func TestDocumentFragmentsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	out, err := executeCommand("document", "fragments", "green_nda.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "MUTUAL NON-DISCLOSURE AGREEMENT")
}

func TestDocumentRecoverCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("document", "recover")

	require.NoError(t, err)
	assert.Contains(t, out, "Recovered 0 documents.")
}

func TestDocumentCmds_ServiceNotConfigured(t *testing.T) {
	oldService := documentService
	documentService = nil
	defer func() {
		documentService = oldService
	}()

	commands := [][]string{
		{"upload", "a.pdf"},
		{"document", "list"},
		{"document", "get", "a.pdf"},
		{"document", "delete", "a.pdf"},
		{"document", "reprocess", "a.pdf"},
		{"document", "fragments", "a.pdf"},
		{"document", "recover"},
		{"expiring"},
	}
	for _, args := range commands {
		_, err := executeCommand(args...)
		require.Error(t, err, "%v", args)
		assert.Contains(t, err.Error(), "document service not configured")
	}
}

func TestExpirationLabel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadContract(t, "green_nda.pdf", expiredNDA)

	view, err := documentService.View(context.Background(), "green_nda.pdf")
	require.NoError(t, err)

	label := expirationLabel(view)
	assert.Contains(t, label, "Expired (2022-03-01, ")
	assert.Contains(t, label, "days ago)")

	view.ExpirationDate, view.DaysRemaining = nil, nil
	view.Expiration = domain.ExpirationNoDate
	assert.Equal(t, "No expiration date", expirationLabel(view))
}

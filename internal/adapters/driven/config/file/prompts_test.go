package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

func TestPromptStore_CreatesDefaultsLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "constructor must not touch disk")

	prompt, err := store.Load(driven.PromptFactExtraction)
	require.NoError(t, err)
	assert.Contains(t, prompt, "expiration_date")
	assert.Equal(t, 1, strings.Count(prompt, driven.PromptAgreementPlaceholder))

	_, err = os.Stat(filepath.Join(dir, driven.PromptFactExtraction+".txt"))
	assert.NoError(t, err)
}

func TestPromptStore_UserEditsAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, driven.PromptFactExtraction+".txt")

	require.NoError(t, os.WriteFile(path, []byte("Custom facts please:\n{{agreement}}\n"), 0600))
	prompt, err := store.Load(driven.PromptFactExtraction)
	require.NoError(t, err)
	assert.Equal(t, "Custom facts please:\n{{agreement}}", prompt)

	require.NoError(t, os.WriteFile(path, []byte("Edited again, 100% sure: {{agreement}}"), 0600))
	prompt, err = store.Load(driven.PromptFactExtraction)
	require.NoError(t, err)
	assert.Equal(t, "Custom facts please:\n{{agreement}}", prompt, "cached until reload")

	store.Reload()
	prompt, err = store.Load(driven.PromptFactExtraction)
	require.NoError(t, err)
	assert.Equal(t, "Edited again, 100% sure: {{agreement}}", prompt)
}

func TestPromptStore_BrokenTemplateFallsBack(t *testing.T) {
	for _, content := range []string{"no placeholder", "Old style:\n%s"} {
		dir := t.TempDir()
		store, err := NewPromptStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptFactExtraction+".txt"),
			[]byte(content), 0600))

		prompt, err := store.Load(driven.PromptFactExtraction)
		require.NoError(t, err)
		assert.Equal(t, defaultPrompts[driven.PromptFactExtraction], prompt, content)
	}
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("missing")
	assert.Error(t, err)
}

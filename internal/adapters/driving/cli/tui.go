package cli

import (
	"context"
	"fmt"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/tui"
	"github.com/custodia-labs/ndavault/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Search stored contracts, open a result's fragment in the context of the
whole document, and browse documents with their workflow status,
expiration and extracted facts. Reprocessing started from the TUI
finishes before the command exits.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select
  n, p     - Next / previous fragment
  Esc      - Back / Cancel
  ?        - Help
  Ctrl-C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in TUI: %v", r)
			err = fmt.Errorf("TUI panic: %v\n%s", r, debug.Stack())
		}
	}()

	app, err := newTUIApp(commandContext(cmd))
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	documentService.Wait()
	return nil
}

// newTUIApp builds the TUI over the configured services.
func newTUIApp(ctx context.Context) (*tui.App, error) {
	app, err := tui.NewApp(tui.NewPorts(searchService, documentService))
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(ctx), nil
}

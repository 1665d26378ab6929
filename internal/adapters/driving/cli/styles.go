package cli

import uistyles "github.com/custodia-labs/ndavault/internal/adapters/driving/tui/styles"

// styles is shared by all commands and matches the TUI palette.
var styles = uistyles.DefaultStyles()

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

func newTUICmd(env *Env) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal UI",
		Long: `Launch the interactive terminal user interface.

Ask questions and read answers with their references, browse and remove
indexed sources, and add files, web pages or YouTube videos.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  Tab      - Switch between answer and references
  Esc      - Back
  ?        - Help
  ctrl+c   - Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			program, err := newTUIApp(a)
			if err != nil {
				return fmt.Errorf("failed to create TUI: %w", err)
			}
			program.WithContext(cmd.Context()).WithTopK(topK)

			// Log lines would corrupt the alternate screen.
			logger.SetOutput(io.Discard)
			defer logger.SetOutput(os.Stderr)

			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in TUI: %v\n%s", r, debug.Stack())
				}
			}()

			if err := program.Run(); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "passages retrieved per question (default from settings)")
	return cmd
}

// newTUIApp builds the TUI over the application's services.
func newTUIApp(a *app.App) (*tui.App, error) {
	return tui.NewApp(&tui.Ports{
		Query:     a.Query,
		Answer:    a.Answer,
		Documents: a.Documents,
		Ingest:    a.Ingest,
	})
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

func newRepairCmd(env *Env) *cobra.Command {
	var opts driving.RepairOptions

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Reconcile the vector index with the metadata store",
		Long: `Find vector entries with no matching chunk and chunks with no vector
entry, then remove the former and re-embed the latter.

Run this after an ingestion failed part way, or with --rebuild after
changing the embedding model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			report, err := a.Repair.Repair(cmd.Context(), opts)
			if err != nil {
				return err
			}

			cmd.Printf("Documents checked: %d\n", report.Documents)
			cmd.Printf("Orphaned vectors:  %d\n", report.Orphans)
			cmd.Printf("Missing vectors:   %d\n", report.Missing)
			if report.DryRun {
				if report.Consistent() {
					cmd.Println("\nStores are consistent.")
				} else {
					cmd.Println("\nDry run: nothing was changed. Run without --dry-run to fix.")
				}
				return nil
			}
			cmd.Printf("Vectors rebuilt:   %d\n", report.Rebuilt)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.DocID, "doc", "", "only repair this document")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report problems without fixing them")
	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "re-embed every chunk")
	return cmd
}

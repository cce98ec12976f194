package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// defaultListLimit matches how many sources fit comfortably on a screen.
const defaultListLimit = 30

func newSourcesCmd(env *Env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "sources",
		Aliases: []string{"list", "ls"},
		Short:   "List indexed sources",
		Long:    `List indexed sources, most recently added first.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			docs, err := a.Documents.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				cmd.Println("No sources indexed yet. Add one with 'notebook add'.")
				return nil
			}

			for i := range docs {
				cmd.Printf("- %s | %s | %s\n", docs[i].SourceType, docs[i].DisplayTitle(), docs[i].SourceRef)
				if env.verbose {
					cmd.Printf("  id: %s\n", docs[i].ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "maximum sources to list (0 for all)")
	return cmd
}

func newShowCmd(env *Env) *cobra.Command {
	var showChunks, showContent, open bool

	cmd := &cobra.Command{
		Use:   "show <doc-id>",
		Short: "Show a document",
		Long: `Show a document's metadata and whether its chunks and vectors agree.

Use --chunks to print every chunk, --content to print the reassembled
text, or --open to open the source in the default application.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			docID := args[0]

			if open {
				if err := a.Documents.Open(ctx, docID); err != nil {
					return err
				}
				cmd.Printf("Opened %s in default application.\n", docID)
				return nil
			}

			details, err := a.Documents.GetDetails(ctx, docID)
			if err != nil {
				return err
			}

			title := details.Title
			if title == "" {
				title = "untitled"
			}
			cmd.Printf("Document: %s\n\n", details.ID)
			cmd.Printf("  Title:    %s\n", title)
			cmd.Printf("  Type:     %s\n", details.SourceType)
			cmd.Printf("  Source:   %s\n", details.SourceRef)
			cmd.Printf("  Chunks:   %d\n", details.ChunkCount)
			cmd.Printf("  Vectors:  %d\n", details.VectorCount)
			cmd.Printf("  Created:  %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
			cmd.Printf("  Updated:  %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))
			if !details.InSync() {
				cmd.Println("\nWarning: chunk and vector counts differ. Run 'notebook repair --doc " + details.ID + "'.")
			}

			if showChunks {
				chunks, err := a.Documents.GetChunks(ctx, docID)
				if err != nil {
					return err
				}
				for _, c := range chunks {
					cmd.Printf("\n[%d] %s\n", c.Position, c.ID)
					cmd.Println(strings.TrimSpace(c.Content))
				}
			}
			if showContent {
				content, err := a.Documents.GetContent(ctx, docID)
				if err != nil {
					return err
				}
				cmd.Println()
				cmd.Println(content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showChunks, "chunks", false, "print every chunk")
	cmd.Flags().BoolVar(&showContent, "content", false, "print the document text")
	cmd.Flags().BoolVar(&open, "open", false, "open the source in the default application")
	return cmd
}

func newRemoveCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <doc-id>...",
		Aliases: []string{"rm"},
		Short:   "Remove documents from the knowledge base",
		Long:    `Remove documents and their chunks from both the metadata store and the vector index.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			var failed []error
			for _, id := range args {
				if err := a.Documents.Delete(cmd.Context(), id); err != nil {
					cmd.PrintErrf("✗ %s: %v\n", id, err)
					failed = append(failed, err)
					continue
				}
				cmd.Printf("✓ Removed %s\n", id)
			}
			return summarise(len(args), failed)
		},
	}
}

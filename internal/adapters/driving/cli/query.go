package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// previewLength is how many characters of a chunk the query output shows.
const previewLength = 240

func newQueryCmd(env *Env) *cobra.Command {
	var topK int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Retrieve the chunks closest to a question",
		Long: `Retrieve the chunks closest to a question without generating an answer.
Results are ordered by ascending distance.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			results, err := a.Query.Query(cmd.Context(), question, domain.QueryOptions{TopK: topK})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toQueryResults(results))
			}

			if len(results) == 0 {
				cmd.Println("No results. The knowledge base may be empty.")
				return nil
			}
			for i, r := range results {
				title := r.Metadata.Title
				if title == "" {
					title = "untitled"
				}
				cmd.Printf("%d. %s (distance %.4f)\n", i+1, title, r.Distance)
				cmd.Printf("   %s #%d\n", r.Metadata.SourceRef, r.Metadata.Position)
				cmd.Printf("   %s\n\n", preview(r.Text, previewLength))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to return (default from settings)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

type queryResult struct {
	ChunkID  string               `json:"chunk_id"`
	Text     string               `json:"text"`
	Distance float64              `json:"distance"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

func toQueryResults(chunks []domain.ContextChunk) []queryResult {
	out := make([]queryResult, len(chunks))
	for i, c := range chunks {
		out[i] = queryResult{ChunkID: c.ChunkID, Text: c.Text, Distance: c.Distance, Metadata: c.Metadata}
	}
	return out
}

// preview collapses whitespace and cuts s to at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Chat front ends cap a message at 2000 characters; compact output stays
// under that with room for the truncation marker.
const (
	compactLimit = 1900
	compactKeep  = 1850
)

func newAskCmd(env *Env) *cobra.Command {
	var topK int
	var compact bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the knowledge base",
		Long: `Retrieve context for a question and ask the configured answer model to
answer from it. The referenced sources are listed after the answer.

With --compact the whole reply is kept short enough to paste into a chat
message.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			answer, err := a.Answer.Ask(cmd.Context(), strings.Join(args, " "), domain.QueryOptions{TopK: topK})
			if err != nil {
				return err
			}

			msg := formatAnswer(answer)
			if compact {
				msg = truncateMessage(msg)
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve (default from settings)")
	cmd.Flags().BoolVar(&compact, "compact", false, "truncate the reply to fit a chat message")
	return cmd
}

// formatAnswer renders an answer followed by its references.
func formatAnswer(answer *domain.Answer) string {
	var sb strings.Builder
	sb.WriteString("Answer\n")
	sb.WriteString(strings.TrimSpace(answer.Text))
	sb.WriteString("\n\nReferences\n")
	if len(answer.Sources) == 0 {
		sb.WriteString("- (no references)")
		return sb.String()
	}
	for i, s := range answer.Sources {
		if i > 0 {
			sb.WriteByte('\n')
		}
		title := s.Title
		if title == "" {
			title = "untitled"
		}
		sb.WriteString("- " + title + " | " + s.SourceRef)
	}
	return sb.String()
}

func truncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= compactLimit {
		return msg
	}
	return string(runes[:compactKeep]) + "\n...(truncated)"
}

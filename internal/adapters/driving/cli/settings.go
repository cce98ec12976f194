package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func newSettingsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change settings",
		Long: `Show and change settings.

Settings resolve from built-in defaults, then the config file, then the
environment (including a .env file in the working directory). Use
'settings keys' to list every key with its environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsShow(cmd, env)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSettingsShow(cmd, env)
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Persist a setting in the config file",
			Example: `  notebook settings set embedding.provider openai
  notebook settings set chunking.size 800
  notebook settings set ingest.transcript_languages en,de`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				base, err := env.Base()
				if err != nil {
					return err
				}
				if err := base.Settings.Set(args[0], args[1]); err != nil {
					return err
				}
				cmd.Printf("✓ %s updated in %s\n", args[0], base.Paths.ConfigFile)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every setting with its environment variables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				base, err := env.Base()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tENV\tDESCRIPTION")
				for _, k := range base.Settings.Keys() {
					fmt.Fprintf(w, "%s\t%s\t%s\n", k.Key, strings.Join(k.Env, ", "), k.Description)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Check that the embedding and answer providers respond",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				base, err := env.Base()
				if err != nil {
					return err
				}
				embedErr := base.Settings.ValidateEmbeddingConfig(cmd.Context())
				printCheck(cmd, "Embedding", embedErr)
				printCheck(cmd, "LLM", base.Settings.ValidateLLMConfig(cmd.Context()))
				// Answers are optional; only the embedder is required.
				return embedErr
			},
		},
	)
	return cmd
}

func printCheck(cmd *cobra.Command, name string, err error) {
	if err != nil {
		cmd.Printf("✗ %s: %v\n", name, err)
		return
	}
	cmd.Printf("✓ %s: ok\n", name)
}

func runSettingsShow(cmd *cobra.Command, env *Env) error {
	base, err := env.Base()
	if err != nil {
		return err
	}
	s, err := base.Settings.Get()
	if err != nil {
		return fmt.Errorf("%w\nRun 'notebook settings set <key> <value>' to fix it", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config file: %s\n\n", base.Paths.ConfigFile)

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", s.DataDir)
	cmd.Printf("  Vector backend: %s\n", s.Vector.Backend)
	if s.Vector.Backend == domain.VectorBackendPgvector {
		cmd.Printf("  DSN: %s\n", secretValue(s.Vector.DSN))
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", s.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", s.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", s.Retrieval.TopK)
	cmd.Printf("  Max context chunks: %d\n", s.Retrieval.MaxContextChunks)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey)
	if s.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(s.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey)
	cmd.Printf("  Timeout: %s\n", s.LLM.Timeout)
	cmd.Printf("  Temperature: %g\n", s.LLM.Temperature)
	cmd.Printf("  Status: %s\n", configuredStatus(s.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Workers: %d\n", s.Ingest.Workers)
	cmd.Printf("  Queue size: %d\n", s.Ingest.QueueSize)
	if s.Ingest.UploadsDir != "" {
		cmd.Printf("  Uploads dir: %s\n", s.Ingest.UploadsDir)
	}
	cmd.Printf("  Fetch timeout: %s\n", s.Ingest.FetchTimeout)
	cmd.Printf("  Fetch rate: %g/s\n", s.Ingest.FetchRate)
	cmd.Printf("  Transcript languages: %s\n", strings.Join(s.Ingest.TranscriptLanguages, ", "))
	if len(s.Ingest.Include) > 0 {
		cmd.Printf("  Include: %s\n", strings.Join(s.Ingest.Include, ", "))
	}
	if s.Ingest.YouTubeAPIKey != "" {
		cmd.Printf("  YouTube API key: %s\n", maskAPIKey(s.Ingest.YouTubeAPIKey))
	}
	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if p.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", secretValue(apiKey))
	}
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func secretValue(v string) string {
	if v == "" {
		return "(not set)"
	}
	return maskAPIKey(v)
}

// maskAPIKey masks an API key for display, showing only first and last 4 chars.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

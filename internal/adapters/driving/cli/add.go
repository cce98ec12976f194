package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func newAddCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add sources to the knowledge base",
		Long: `Add local files, web pages, YouTube videos or whole directories.

Adding a source that is already indexed replaces its previous chunks.`,
	}
	cmd.AddCommand(
		newAddFileCmd(env),
		newAddSourceCmd(env, domain.SourceTypeURL, "url <url>", "Add a web page"),
		newAddSourceCmd(env, domain.SourceTypeYouTube, "youtube <url-or-id>", "Add a YouTube video transcript"),
		newAddDirCmd(env),
	)
	return cmd
}

func newAddFileCmd(env *Env) *cobra.Command {
	var upload bool
	var title string

	cmd := &cobra.Command{
		Use:   "file <path>...",
		Short: "Add local files",
		Long: `Add one or more local files. Text, Markdown, HTML, DOCX, EML and PDF
files are supported; other files are accepted when they contain text.

With --upload the file is first copied into the uploads directory and the
copy is indexed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			var failed []error
			for _, path := range args {
				if upload {
					copied, err := copyToUploads(path, a.Config.Ingest.UploadsDir)
					if err != nil {
						failed = append(failed, err)
						cmd.PrintErrf("✗ %s: %v\n", path, err)
						continue
					}
					path = copied
				}
				req := domain.IngestRequest{SourceType: domain.SourceTypeFile, Locator: path, Title: title}
				if err := ingestOne(cmd, a, req); err != nil {
					failed = append(failed, err)
				}
			}
			return summarise(len(args), failed)
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "copy files into the uploads directory before indexing")
	cmd.Flags().StringVar(&title, "title", "", "override the extracted title")
	return cmd
}

func newAddSourceCmd(env *Env, sourceType domain.SourceType, use, short string) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			return ingestOne(cmd, a, domain.IngestRequest{SourceType: sourceType, Locator: args[0], Title: title})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "override the extracted title")
	return cmd
}

func newAddDirCmd(env *Env) *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "dir <dir>",
		Short: "Add every matching file under a directory",
		Long: `Add every file under a directory that matches one of the include
patterns. Patterns use doublestar syntax relative to the directory, for
example "**/*.md" or "notes/*.{txt,md}". Without patterns, the configured
ingest.include patterns are used, and without those every file with a
supported extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			if len(include) == 0 {
				include = a.Config.Ingest.Include
			}

			files, err := matchFiles(args[0], include, a.Files.Supports)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				cmd.Println("No matching files found.")
				return nil
			}

			reqs := make([]domain.IngestRequest, len(files))
			for i, f := range files {
				reqs[i] = domain.IngestRequest{SourceType: domain.SourceTypeFile, Locator: f}
			}
			return ingestMany(cmd, a, reqs)
		},
	}
	cmd.Flags().StringSliceVarP(&include, "include", "i", nil, "doublestar include pattern (repeatable)")
	return cmd
}

// ingestOne runs a single ingestion and reports it.
func ingestOne(cmd *cobra.Command, a *app.App, req domain.IngestRequest) error {
	result, err := a.Ingest.Ingest(cmd.Context(), req)
	if err != nil {
		cmd.PrintErrf("✗ %s: %v\n", req.Locator, err)
		return err
	}
	printIndexed(cmd, a, req.SourceType, result)
	return nil
}

// ingestMany queues every request, waiting for earlier jobs whenever the
// queue is full, and reports each result as it completes.
func ingestMany(cmd *cobra.Command, a *app.App, reqs []domain.IngestRequest) error {
	ctx := cmd.Context()
	type pending struct {
		id  string
		req domain.IngestRequest
	}
	var queue []pending
	var failed []error

	drainOne := func() {
		p := queue[0]
		queue = queue[1:]
		result, err := a.Ingest.Wait(ctx, p.id)
		if err != nil {
			failed = append(failed, err)
			cmd.PrintErrf("✗ %s: %v\n", p.req.Locator, err)
			return
		}
		printIndexed(cmd, a, p.req.SourceType, result)
	}

	for _, req := range reqs {
		for {
			id, err := a.Ingest.Submit(ctx, req)
			if errors.Is(err, domain.ErrQueueFull) && len(queue) > 0 {
				drainOne()
				continue
			}
			if err != nil {
				failed = append(failed, err)
				cmd.PrintErrf("✗ %s: %v\n", req.Locator, err)
				break
			}
			queue = append(queue, pending{id: id, req: req})
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	for len(queue) > 0 {
		drainOne()
	}
	return summarise(len(reqs), failed)
}

func printIndexed(cmd *cobra.Command, a *app.App, sourceType domain.SourceType, result *domain.IndexResult) {
	title := result.DocID
	ref := ""
	if doc, err := a.Documents.Get(cmd.Context(), result.DocID); err == nil {
		title = doc.DisplayTitle()
		ref = doc.SourceRef
	}
	cmd.Printf("✓ Added %s: %s (%d chunks)\n", sourceType, title, result.Chunks)
	cmd.Printf("  id: %s\n", result.DocID)
	if sourceType == domain.SourceTypeYouTube && ref != "" {
		cmd.Printf("  source: %s\n", ref)
	}
}

func summarise(total int, failed []error) error {
	if len(failed) == 0 {
		return nil
	}
	if total == 1 {
		return failed[0]
	}
	return fmt.Errorf("%d of %d sources failed: %w", len(failed), total, errors.Join(failed...))
}

// matchFiles walks dir and returns the regular files matching any pattern,
// or accepted by fallback when there are no patterns.
func matchFiles(dir string, patterns []string, fallback func(string) bool) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, p)
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matches(filepath.ToSlash(rel), patterns, fallback) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func matches(rel string, patterns []string, fallback func(string) bool) bool {
	if len(patterns) == 0 {
		return fallback == nil || fallback(rel)
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// copyToUploads copies src into dir, keeping its base name.
func copyToUploads(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	return dst, out.Close()
}

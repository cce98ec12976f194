package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/watcher"
)

func newWatchCmd(env *Env) *cobra.Command {
	var include []string
	var initial bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Index files as they change in a directory",
		Long: `Watch a directory (the uploads directory by default) and index files
as they are created or modified. Removed files are removed from the
knowledge base. Hidden files and directories are ignored.

Press Ctrl+C to stop; queued files finish indexing first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			dir := a.Config.Ingest.UploadsDir
			if len(args) == 1 {
				dir = args[0]
			}
			if len(include) == 0 {
				include = a.Config.Ingest.Include
			}

			w, err := watcher.New(watcher.Config{
				Dir:      dir,
				Include:  include,
				Accept:   a.Files.Supports,
				Debounce: debounce,
			})
			if err != nil {
				return err
			}

			if initial {
				files, err := w.Scan()
				if err != nil {
					return err
				}
				reqs := make([]domain.IngestRequest, len(files))
				for i, f := range files {
					reqs[i] = domain.IngestRequest{SourceType: domain.SourceTypeFile, Locator: f}
				}
				if err := ingestMany(cmd, a, reqs); err != nil {
					cmd.PrintErrf("Initial scan: %v\n", err)
				}
			}

			cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Root())
			h := &watchHandler{cmd: cmd, app: a}
			err = w.Run(cmd.Context(), h.handle)
			h.wait()
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&include, "include", "i", nil, "doublestar include pattern (repeatable)")
	cmd.Flags().BoolVar(&initial, "initial", false, "index existing files before watching")
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a change is indexed")
	return cmd
}

// watchHandler applies watcher changes to the knowledge base.
type watchHandler struct {
	cmd *cobra.Command
	app *app.App

	out  sync.Mutex
	jobs sync.WaitGroup
}

func (h *watchHandler) handle(ctx context.Context, change watcher.Change) {
	if change.Deleted {
		err := h.app.Documents.Delete(ctx, domain.FileDocumentID(change.Path))
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			h.printErr(change.Path, err)
		default:
			h.printf("✓ Removed %s\n", change.Path)
		}
		return
	}

	req := domain.IngestRequest{SourceType: domain.SourceTypeFile, Locator: change.Path}
	id, err := h.app.Ingest.Submit(ctx, req)
	if err != nil {
		h.printErr(change.Path, err)
		return
	}

	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		// Jobs keep running after ctx is cancelled; wait for them regardless.
		result, err := h.app.Ingest.Wait(context.WithoutCancel(ctx), id)
		if err != nil {
			h.printErr(change.Path, err)
			return
		}
		h.printf("✓ Indexed %s (%d chunks)\n", change.Path, result.Chunks)
	}()
}

func (h *watchHandler) wait() {
	h.jobs.Wait()
}

func (h *watchHandler) printf(format string, args ...any) {
	h.out.Lock()
	defer h.out.Unlock()
	h.cmd.Printf(format, args...)
}

func (h *watchHandler) printErr(path string, err error) {
	h.out.Lock()
	defer h.out.Unlock()
	h.cmd.PrintErrf("✗ %s: %v\n", path, err)
}

// Package cli provides the notebook command-line interface.
package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Loader builds the application for a command. It is called at most once
// per process, the first time a command needs a service.
type Loader func(ctx context.Context, opts app.Options) (*app.App, error)

// BaseLoader loads settings without opening any store.
type BaseLoader func(opts app.Options) (*app.Base, error)

// Env carries what every command needs: the global flags and lazily
// built application. There are no package-level services.
type Env struct {
	Version string

	opts     app.Options
	verbose  bool
	load     Loader
	loadBase BaseLoader

	mu  sync.Mutex
	app *app.App
}

// NewEnv creates an Env. Nil loaders select app.New and app.LoadBase.
func NewEnv(version string, load Loader, loadBase BaseLoader) *Env {
	if load == nil {
		load = app.New
	}
	if loadBase == nil {
		loadBase = app.LoadBase
	}
	return &Env{Version: version, load: load, loadBase: loadBase}
}

// App returns the application, building it on first use.
func (e *Env) App(ctx context.Context) (*app.App, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.load(ctx, e.opts)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

// Base returns settings and config locations without opening stores.
func (e *Env) Base() (*app.Base, error) {
	e.mu.Lock()
	if e.app != nil {
		base := e.app.Base
		e.mu.Unlock()
		return base, nil
	}
	e.mu.Unlock()
	return e.loadBase(e.opts)
}

// Close releases the application if it was built.
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// NewRootCommand builds the notebook command tree.
func NewRootCommand(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "notebook",
		Short: "Local-first knowledge base for your files, pages and videos",
		Long: `notebook ingests local files, web pages and YouTube transcripts into a
local knowledge base and answers questions from it.

Documents are split into overlapping chunks, embedded and stored in a
vector index next to a SQLite metadata store. Questions retrieve the
closest chunks and, when an answer model is configured, an answer
grounded in them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if env.verbose {
				logger.SetVerbose(true)
			}
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return env.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&env.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&env.opts.DataDir, "data-dir", "", "data directory (overrides NOTEBOOK_DATA_DIR)")
	flags.StringVar(&env.opts.ConfigPath, "config", "", "config file or directory (default ~/.notebook)")

	root.AddCommand(
		newAddCmd(env),
		newImportCmd(env),
		newSourcesCmd(env),
		newShowCmd(env),
		newRemoveCmd(env),
		newQueryCmd(env),
		newAskCmd(env),
		newRepairCmd(env),
		newWatchCmd(env),
		newServeCmd(env),
		newMCPCmd(env),
		newTUICmd(env),
		newSettingsCmd(env),
		newVersionCmd(env),
	)
	return root
}

// Execute runs the root command and releases the application afterwards,
// including when the command failed.
func Execute(ctx context.Context, env *Env, args []string) error {
	root := NewRootCommand(env)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, env.Close())
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Manifest lists sources to ingest in one run.
//
//	sources:
//	  - type: file
//	    path: notes/meeting.md
//	  - type: url
//	    url: https://example.com/post
//	    title: Example post
//	  - type: dir
//	    path: papers
//	    include: ["**/*.pdf"]
type Manifest struct {
	Sources []ManifestSource `yaml:"sources"`
}

// ManifestSource is one entry in a Manifest. Type "dir" expands to every
// matching file under Path.
type ManifestSource struct {
	Type    string   `yaml:"type"`
	Path    string   `yaml:"path,omitempty"`
	URL     string   `yaml:"url,omitempty"`
	Title   string   `yaml:"title,omitempty"`
	Include []string `yaml:"include,omitempty"`
}

// LoadManifest reads a YAML manifest. Relative paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Sources {
		s := &m.Sources[i]
		if s.Path != "" && !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
	}
	return &m, nil
}

// Requests expands the manifest into ingest requests. accept filters
// directory entries when a dir source has no include patterns.
func (m *Manifest) Requests(accept func(string) bool) ([]domain.IngestRequest, error) {
	var reqs []domain.IngestRequest
	for i, s := range m.Sources {
		locator := s.Path
		if locator == "" {
			locator = s.URL
		}
		if locator == "" {
			return nil, fmt.Errorf("%w: source %d has neither path nor url", domain.ErrInvalidInput, i+1)
		}

		if s.Type == "dir" {
			files, err := matchFiles(locator, s.Include, accept)
			if err != nil {
				return nil, fmt.Errorf("source %d: %w", i+1, err)
			}
			for _, f := range files {
				reqs = append(reqs, domain.IngestRequest{SourceType: domain.SourceTypeFile, Locator: f})
			}
			continue
		}

		st := domain.SourceType(s.Type)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: source %d has unknown type %q", domain.ErrUnsupportedType, i+1, s.Type)
		}
		reqs = append(reqs, domain.IngestRequest{SourceType: st, Locator: locator, Title: s.Title})
	}
	return reqs, nil
}

func newImportCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Add every source listed in a YAML manifest",
		Long: `Add every source listed in a YAML manifest. Each entry has a type
(file, url, youtube or dir), a path or url, and optionally a title or,
for directories, include patterns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			reqs, err := m.Requests(a.Files.Supports)
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				cmd.Println("Manifest lists no sources.")
				return nil
			}
			return ingestMany(cmd, a, reqs)
		},
	}
}

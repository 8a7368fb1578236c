package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aretw0/dockwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Extensions tried, in order, when resolving a reference.
var Extensions = []string{".yaml", ".yml", ".json"}

// Resolver implements ports.FragmentResolver over a filesystem. A reference
// "run" resolves to run.yaml, run.yml or run.json; "shared/help" looks in the
// shared directory.
type Resolver struct {
	fsys fs.FS
}

// NewResolver creates a resolver over fsys (for example an embed.FS).
func NewResolver(fsys fs.FS) *Resolver {
	return &Resolver{fsys: fsys}
}

// NewDirResolver creates a resolver rooted at dir on the local disk.
func NewDirResolver(dir string) *Resolver {
	return &Resolver{fsys: os.DirFS(dir)}
}

// Resolve reads and decodes the fragment named ref.
func (r *Resolver) Resolve(ref string) (any, error) {
	for _, ext := range Extensions {
		name := ref + ext
		if !fs.ValidPath(name) {
			return nil, fmt.Errorf("%w: invalid reference %q", domain.ErrFragmentNotFound, ref)
		}

		data, err := fs.ReadFile(r.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read fragment %s: %w", name, err)
		}

		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode fragment %s: %w", name, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFragmentNotFound, ref)
}

// Exists reports whether ref can be resolved.
func (r *Resolver) Exists(ref string) bool {
	for _, ext := range Extensions {
		if _, err := fs.Stat(r.fsys, ref+ext); err == nil {
			return true
		}
	}
	return false
}

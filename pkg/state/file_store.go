package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	overrides "github.com/goliatone/go-overrides"
)

// FileStore keeps one YAML document per Ref under Dir, at
// <Dir>/<Ref.Identifier()>.yaml. Documents written by Save wrap the options in
// an envelope with the metadata:
//
//	meta:
//	  snapshot_id: ...
//	options:
//	  config: {...}
//	  overrides: [...]
//
// Hand-written files without an options key are read as the options document
// itself, with empty metadata.
//
// The ETag compare-and-swap in Save is serialized within one FileStore only;
// processes sharing Dir can still overwrite each other.
type FileStore struct {
	Dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, now: time.Now}
}

type fileEnvelope struct {
	Meta    Meta `yaml:"meta"`
	Options any  `yaml:"options"`
}

func (s *FileStore) path(ref Ref) (string, error) {
	if s.Dir == "" {
		return "", fmt.Errorf("state: file store directory is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, filepath.FromSlash(key)+".yaml"), nil
}

func (s *FileStore) Load(_ context.Context, ref Ref) (any, Meta, bool, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, err
	}

	raw, err := overrides.ParseUserInput(data)
	if err != nil {
		return nil, Meta{}, false, err
	}
	doc, isMap := raw.(map[string]any)
	if !isMap {
		return raw, Meta{}, true, nil
	}
	if _, wrapped := doc["options"]; !wrapped {
		return raw, Meta{}, true, nil
	}

	var envelope fileEnvelope
	if err := yaml.Unmarshal(data, &envelope); err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: decode %s: %w", path, err)
	}
	return envelope.Options, envelope.Meta, true, nil
}

// Save writes the envelope to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, ref Ref, raw any, meta Meta) (Meta, error) {
	path, err := s.path(ref)
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, current, exists, err := s.Load(ctx, ref)
	if err != nil {
		return Meta{}, err
	}
	if err := checkETag(meta.ETag, current, exists); err != nil {
		return Meta{}, err
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	saved := stamp(meta, now())

	data, err := yaml.Marshal(fileEnvelope{Meta: saved, Options: raw})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", ref.Plugin, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Meta{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.yaml")
	if err != nil {
		return Meta{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Meta{}, err
	}
	if err := tmp.Close(); err != nil {
		return Meta{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Meta{}, err
	}
	return saved, nil
}

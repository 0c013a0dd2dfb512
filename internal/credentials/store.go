package credentials

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileStore keeps secrets in a YAML map readable only by the owner
type FileStore struct {
	log      zerolog.Logger
	path     string
	defaults map[string]string

	mu     sync.Mutex
	values map[string]string
}

var _ domain.CredentialProvider = (*FileStore)(nil)

// NewFileStore loads path if it exists. defaults answer Get for keys the file lacks.
func NewFileStore(log zerolog.Logger, path string, defaults map[string]string) (*FileStore, error) {
	s := &FileStore{
		log:      log.With().Str("module", "credentials").Logger(),
		path:     path,
		defaults: defaults,
		values:   map[string]string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "failed to read credentials file %s", path)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, errors.Wrapf(err, "failed to parse credentials file %s", path)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}

	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok && v != "" {
		return v, true
	}
	if v, ok := s.defaults[key]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Stored returns the value kept in the credentials file, ignoring defaults
func (s *FileStore) Stored(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	return v, ok && v != ""
}

// Set stores value under key and persists the file. An empty value deletes the key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	if value == "" {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}

	if err := s.persist(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}

	s.log.Debug().Str("key", key).Bool("deleted", value == "").Msg("credential updated")
	return nil
}

func (s *FileStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create credentials dir")
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return errors.Wrap(err, "failed to marshal credentials")
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write credentials file %s", s.path)
	}

	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(s.path, 0o600); err != nil {
		return errors.Wrap(err, "failed to restrict credentials file")
	}

	return nil
}

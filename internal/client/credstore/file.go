package credstore

import (
	"bytes"
	"context"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
)

// fileStore keeps every key in one JSON document. Each mutation rewrites the
// whole document through a temp file and a rename.
type fileStore struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

type document struct {
	Values map[string]string `json:"values"`
}

// NewFile returns a store backed by the document at path. A non-empty
// passphrase encrypts the document at rest.
func NewFile(path, passphrase string) (Store, error) {
	s := &fileStore{path: path}
	if passphrase != "" {
		aead, err := newSealer(passphrase)
		if err != nil {
			return nil, err
		}
		s.aead = aead
	}
	return s, nil
}

func (s *fileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}
	if s.aead != nil {
		if data, err = open(s.aead, bytes.TrimSpace(data)); err != nil {
			return nil, err
		}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc.Values, nil
}

func (s *fileStore) save(values map[string]string) error {
	data, err := json.Marshal(document{Values: values})
	if err != nil {
		return err
	}
	if s.aead != nil {
		if data, err = seal(s.aead, data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, clienterr.Wrap(clienterr.KindStorage, "credstore.file.get", "read document", err)
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *fileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return clienterr.Wrap(clienterr.KindStorage, "credstore.file.set", "read document", err)
	}
	values[key] = value
	return clienterr.Wrap(clienterr.KindStorage, "credstore.file.set", "write document", s.save(values))
}

func (s *fileStore) RemoveMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return clienterr.Wrap(clienterr.KindStorage, "credstore.file.remove", "read document", err)
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return clienterr.Wrap(clienterr.KindStorage, "credstore.file.remove", "write document", s.save(values))
}

func (s *fileStore) Close() error {
	return nil
}

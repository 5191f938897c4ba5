package filestore

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core/session"
)

// errCorruptFile is returned by Get when the file cannot be decoded; Set and Clear overwrite it.
var errCorruptFile = errors.New("token file is corrupt")

// store keeps tokens in a small JSON object file, {key: token}, so it survives restarts.
type store struct {
	mu   sync.Mutex
	path string
	key  string
}

var _ session.TokenStore = (*store)(nil)

func NewTokenStore(path, key string) session.TokenStore {
	return &store{path: path, key: key}
}

func (s *store) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return "", err
	}
	token, ok := data[s.key]
	if !ok || token == "" {
		return "", session.ErrNoToken
	}
	return token, nil
}

func (s *store) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil && errors.Cause(err) != errCorruptFile {
		return err
	}
	data[s.key] = token
	return s.write(data)
}

func (s *store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	corrupt := errors.Cause(err) == errCorruptFile
	if err != nil && !corrupt {
		return err
	}
	if _, ok := data[s.key]; !ok && !corrupt {
		return nil
	}
	delete(data, s.key)
	return s.write(data)
}

func (s *store) read() (map[string]string, error) {
	data := make(map[string]string)
	content, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}
	if len(content) == 0 {
		return data, nil
	}
	if err = json.Unmarshal(content, &data); err != nil {
		return make(map[string]string), errors.Wrapf(errCorruptFile, "decoding %s: %v", s.path, err)
	}
	return data, nil
}

// write replaces the file atomically: temp file in the same dir, then rename.
func (s *store) write(data map[string]string) error {
	content, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding token file")
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := ioutil.TempFile(dir, ".token-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "replacing %s", s.path)
}

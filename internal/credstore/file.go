package credstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/homeheaven/internal/errs"
)

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

// File stores the credential as a small JSON document in the state directory.
type File struct {
	path string
}

var _ Store = (*File)(nil)

// NewFile returns a store writing to <dir>/token.json.
func NewFile(dir string) *File {
	return &File{path: filepath.Join(dir, "token.json")}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Load reads the credential; a missing or empty file is errs.ErrNotFound.
func (f *File) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" {
		return "", errs.ErrNotFound
	}
	return tf.AccessToken, nil
}

// Save writes the credential atomically (temp file + rename).
func (f *File) Save(credential string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tokenFile{AccessToken: credential}); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Clear removes the file.
func (f *File) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

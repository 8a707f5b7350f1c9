// Package session persists browser cookies between runs and restores
// them so the storefront recognizes the operator without a fresh login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"coinclaw/internal/browser"
)

// ErrNoSession means no usable saved session exists at the store path.
var ErrNoSession = errors.New("no saved session")

// Store reads and writes the cookie jar file. Writes go through a
// temporary file and a rename so a crash never leaves a half-written
// jar behind.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns the saved cookies. A missing file and an empty jar both
// come back as ErrNoSession; a jar that cannot be parsed is an error of
// its own so the caller can tell corruption from absence.
func (s *Store) Load() ([]browser.Cookie, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session file %s: %w", s.path, err)
	}
	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	if len(cookies) == 0 {
		return nil, ErrNoSession
	}
	return cookies, nil
}

// Save replaces the jar with cookies.
func (s *Store) Save(cookies []browser.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the jar. Clearing a jar that does not exist is
// ErrNoSession.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoSession
		}
		return fmt.Errorf("remove session file %s: %w", s.path, err)
	}
	return nil
}

// Info describes the saved session without exposing cookie values.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
	Cookies int
}

// Stat reports the saved session's file metadata and cookie count.
func (s *Store) Stat() (Info, error) {
	fi, err := s.fs.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, ErrNoSession
		}
		return Info{}, fmt.Errorf("stat session file %s: %w", s.path, err)
	}
	info := Info{Path: s.path, Size: fi.Size(), ModTime: fi.ModTime()}
	if cookies, err := s.Load(); err == nil {
		info.Cookies = len(cookies)
	}
	return info, nil
}

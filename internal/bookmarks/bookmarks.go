// Package bookmarks keeps named calendar URLs in a YAML file.
package bookmarks

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"icalyse/internal/config"
	appLog "icalyse/internal/log"
)

var (
	// ErrEmptyURL is returned when a bookmark has no URL.
	ErrEmptyURL = errors.New("bookmark url is empty")
	// ErrEmptyName is returned when a new bookmark has no name.
	ErrEmptyName = errors.New("bookmark name is empty")
)

// Bookmark is one named calendar URL.
type Bookmark struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
}

type fileFormat struct {
	Bookmarks []Bookmark `yaml:"bookmarks"`
}

// Store is a concurrency-safe bookmark set. Changes stay in memory until
// Save is called.
type Store struct {
	path string

	mu    sync.RWMutex
	names map[string]string
}

// NewStore creates an empty store persisted at path.
func NewStore(path string) *Store {
	return &Store{path: path, names: make(map[string]string)}
}

// Open creates a store and loads path if it exists.
func Open(path string) (*Store, error) {
	s := NewStore(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory set with the contents of the backing file.
// A missing file yields an empty set.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.names = make(map[string]string)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read bookmarks: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse bookmarks %s: %w", s.path, err)
	}

	names := make(map[string]string, len(f.Bookmarks))
	for _, b := range f.Bookmarks {
		if b.URL == "" || b.Name == "" {
			continue
		}
		names[b.URL] = b.Name
	}

	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
	appLog.Debug("bookmarks loaded", "path", s.path, "count", len(names))
	return nil
}

// Save writes the current set to the backing file atomically.
func (s *Store) Save() error {
	data, err := yaml.Marshal(fileFormat{Bookmarks: s.List()})
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write bookmarks: %w", err)
	}
	return nil
}

// IsBookmarked reports whether url is in the set.
func (s *Store) IsBookmarked(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[url]
	return ok
}

// Add stores url under name. An existing bookmark is left unchanged and
// Add reports false.
func (s *Store) Add(url, name string) (bool, error) {
	url = strings.TrimSpace(url)
	name = strings.TrimSpace(name)
	if url == "" {
		return false, ErrEmptyURL
	}
	if name == "" {
		return false, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[url]; ok {
		return false, nil
	}
	s.names[url] = name
	return true, nil
}

// Remove deletes url and reports whether it was present.
func (s *Store) Remove(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[url]; !ok {
		return false
	}
	delete(s.names, url)
	return true
}

// Toggle removes url when it is bookmarked and adds it under name otherwise.
// It reports whether url is bookmarked afterwards.
func (s *Store) Toggle(url, name string) (bool, error) {
	if s.Remove(url) {
		return false, nil
	}
	if _, err := s.Add(url, name); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every bookmark ordered by name, then URL.
func (s *Store) List() []Bookmark {
	s.mu.RLock()
	out := make([]Bookmark, 0, len(s.names))
	for u, n := range s.names {
		out = append(out, Bookmark{URL: u, Name: n})
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Bookmark) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.URL, b.URL)
	})
	return out
}

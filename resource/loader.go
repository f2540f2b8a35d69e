package resource

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kasuganosora/ghostai/game/board"
)

var boardFileRegex = regexp.MustCompile(`^([A-Za-z0-9_-]+)\.txt$`)

// Loader holds the board layouts found in a data directory.
// Layouts are validated once on Load; every NewLevel builds a fresh board
// so rooms never share mutable squares.
type Loader struct {
	Dir string

	mu      sync.RWMutex
	layouts map[string][]string
}

// NewLoader creates a Loader for the given boards directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		Dir:     dir,
		layouts: make(map[string][]string),
	}
}

// Load reads every <name>.txt in Dir. A layout that does not parse fails
// the whole load.
func (l *Loader) Load() error {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return fmt.Errorf("resource: readdir %s: %w", l.Dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := boardFileRegex.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		path := filepath.Join(l.Dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("resource: read %s: %w", path, err)
		}
		if err := l.Add(m[1], strings.Split(string(data), "\n")); err != nil {
			return fmt.Errorf("resource: parse %s: %w", path, err)
		}
	}
	return nil
}

// Add registers a layout under name after checking that it parses.
func (l *Loader) Add(name string, lines []string) error {
	if _, err := ParseLevel(name, lines, nil); err != nil {
		return err
	}
	cp := make([]string, len(lines))
	copy(cp, lines)

	l.mu.Lock()
	l.layouts[name] = cp
	l.mu.Unlock()
	return nil
}

// Names returns the loaded board names, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.layouts))
	for n := range l.layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Layout returns the raw lines of a board.
func (l *Loader) Layout(name string) ([]string, error) {
	l.mu.RLock()
	lines, ok := l.layouts[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, name)
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return cp, nil
}

// NewLevel builds a fresh level from a loaded layout.
func (l *Loader) NewLevel(name string, seed int64, opts ...board.Option) (*Level, error) {
	lines, err := l.Layout(name)
	if err != nil {
		return nil, err
	}
	return ParseLevel(name, lines, rand.New(rand.NewSource(seed)), opts...)
}

// Package targets keeps the list of observable targets: the built-in
// defaults plus whatever a user adds during a session.
package targets

import (
	"strings"
	"sync"

	"github.com/star/elevplot/internal/coord"
	"github.com/star/elevplot/internal/elevation"
)

// Target is a named position. RA and Dec hold the strings as entered so
// they can be shown back unchanged.
type Target struct {
	Name  string           `json:"name" yaml:"name"`
	RA    string           `json:"ra" yaml:"ra"`
	Dec   string           `json:"dec" yaml:"dec"`
	Coord coord.Coordinate `json:"-" yaml:"-"`
}

// New parses ra and dec and builds a Target. Every field is required.
func New(name, ra, dec string) (Target, error) {
	name, ra, dec = strings.TrimSpace(name), strings.TrimSpace(ra), strings.TrimSpace(dec)
	switch {
	case name == "":
		return Target{}, coord.NewInputError("name", "", "must not be empty")
	case ra == "":
		return Target{}, coord.NewInputError("ra", "", "must not be empty")
	case dec == "":
		return Target{}, coord.NewInputError("dec", "", "must not be empty")
	}
	c, err := coord.Parse(ra, dec)
	if err != nil {
		return Target{}, err
	}
	return Target{Name: name, RA: ra, Dec: dec, Coord: c}, nil
}

func mustNew(name, ra, dec string) Target {
	t, err := New(name, ra, dec)
	if err != nil {
		panic(err)
	}
	return t
}

var defaults = []Target{
	mustNew("AG Peg", "21 51 01.9", "+12 37 32"),
	mustNew("AX Per", "01 36 22.7", "+54 15 02"),
	mustNew("SS Lep", "06 04 59.28", "-16 29 04"),
	mustNew("V694 Mon", "07 25 51", "-07 44 08.1"),
}

// Defaults returns the built-in symbiotic-star targets.
func Defaults() []Target {
	out := make([]Target, len(defaults))
	copy(out, defaults)
	return out
}

// Store holds one session's targets. Defaults are fixed at construction;
// custom targets are added by name, and re-adding a name replaces it.
type Store struct {
	mu       sync.RWMutex
	defaults []Target
	custom   map[string]Target
	order    []string // custom names in insertion order
}

// NewStore creates a Store seeded with defaults. A nil slice uses Defaults().
func NewStore(defaults []Target) *Store {
	if defaults == nil {
		defaults = Defaults()
	}
	return &Store{
		defaults: append([]Target(nil), defaults...),
		custom:   make(map[string]Target),
	}
}

// Add validates and stores a custom target. On error the store is left
// untouched.
func (s *Store) Add(name, ra, dec string) (Target, error) {
	t, err := New(name, ra, dec)
	if err != nil {
		return Target{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.custom[t.Name]; !ok {
		s.order = append(s.order, t.Name)
	}
	s.custom[t.Name] = t
	return t, nil
}

// List returns defaults first, then custom targets in insertion order. A
// custom target sharing a default's name takes the default's slot.
func (s *Store) List() []Target {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Target, 0, len(s.defaults)+len(s.order))
	isDefault := make(map[string]bool, len(s.defaults))
	for _, d := range s.defaults {
		isDefault[d.Name] = true
		if c, ok := s.custom[d.Name]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, d)
	}
	for _, name := range s.order {
		if !isDefault[name] {
			out = append(out, s.custom[name])
		}
	}
	return out
}

// Len reports the number of distinct targets.
func (s *Store) Len() int {
	return len(s.List())
}

// CustomLen reports how many custom targets have been added.
func (s *Store) CustomLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.custom)
}

// Get returns the target with the given name.
func (s *Store) Get(name string) (Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.custom[name]; ok {
		return t, true
	}
	for _, d := range s.defaults {
		if d.Name == name {
			return d, true
		}
	}
	return Target{}, false
}

// Lookup returns the named targets in the order requested. Duplicate names
// are collapsed; an unknown name is an *coord.InputError.
func (s *Store) Lookup(names []string) ([]Target, error) {
	out := make([]Target, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		t, ok := s.Get(n)
		if !ok {
			return nil, coord.NewInputError("targets", n, "unknown target")
		}
		seen[n] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, coord.NewInputError("targets", "", "at least one target is required")
	}
	return out, nil
}

// DefaultSelection names the targets preselected in a fresh session.
func (s *Store) DefaultSelection() []string {
	out := make([]string, len(s.defaults))
	for i, d := range s.defaults {
		out[i] = d.Name
	}
	return out
}

// ForElevation converts targets into the elevation computer's input.
func ForElevation(ts []Target) []elevation.Target {
	out := make([]elevation.Target, len(ts))
	for i, t := range ts {
		out[i] = elevation.Target{Name: t.Name, Coord: t.Coord}
	}
	return out
}

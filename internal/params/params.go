// Package params builds method descriptor sets for the supported protocols.
// A descriptor pairs a method name with a parameter generator; the engine
// treats both as opaque and never hardcodes protocol-specific shapes.
package params

import (
	"fmt"
	"math/rand"
	"sync"
)

// Generator produces one parameter payload for a call: a positional list
// ([]any) for Ethereum-style APIs or a named object (map[string]any) for
// Tendermint-style APIs. Generators must be synchronous and perform no I/O.
type Generator func() any

// Descriptor is one method of a flood run. Immutable once constructed.
type Descriptor struct {
	Name   string
	Params Generator
}

// Set is the fixed descriptor collection of one run.
type Set []Descriptor

// Names returns the method names in set order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// Filter restricts the set to an allow-list. An empty allow-list keeps the
// full set. A name not present in the set is a configuration error.
func (s Set) Filter(allow []string) (Set, error) {
	if len(allow) == 0 {
		return s, nil
	}

	byName := make(map[string]Descriptor, len(s))
	for _, d := range s {
		byName[d.Name] = d
	}

	filtered := make(Set, 0, len(allow))
	for _, name := range allow {
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown method: %s", name)
		}
		filtered = append(filtered, d)
	}
	return filtered, nil
}

// EmptyParams generates an empty positional parameter list.
func EmptyParams() any {
	return []any{}
}

// source is the shared random source for generators. Generators run only on
// the dispatch loop goroutine, but probe and flood phases may interleave with
// discovery in server mode, so access stays locked.
type source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSource() *source {
	return &source{rng: rand.New(rand.NewSource(rand.Int63()))}
}

func (s *source) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *source) rangeInt(lo, hi int) int {
	return lo + s.intn(hi-lo+1)
}

func (s *source) bytes(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, n)
	s.rng.Read(b)
	return b
}

func (s *source) boolean() bool {
	return s.intn(2) == 0
}

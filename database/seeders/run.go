// Package seeders holds idempotent seed functions run by the seed command.
//
//	func init() {
//	    seeders.Register("groups", SeedGroups)
//	}
package seeders

import (
	"fmt"
	"io"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc is the signature for a seed function. It must be safe to run
// more than once.
type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Run runs the named seeders, or all of them when names is empty, reporting
// progress to out. It stops on the first error.
func Run(db *gorm.DB, out io.Writer, names ...string) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	ran := 0
	for _, e := range current {
		if len(want) > 0 && !want[e.name] {
			continue
		}
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
		ran++
	}
	if len(want) > 0 && ran != len(want) {
		return fmt.Errorf("seeders: %d of %d requested seeders not registered", len(want)-ran, len(want))
	}
	return nil
}

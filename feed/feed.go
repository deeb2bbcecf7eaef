// Package feed holds the bounded recent-winners ticker shown next to the
// reel. The list is most-recent-first with a fixed capacity; it can be
// appended one win at a time or replaced wholesale when the backend
// bundles its own recent-wins list into a spin event.
package feed

import (
	"fmt"
	"sync"
)

// Capacity is the fixed number of entries the feed retains.
const Capacity = 10

// Entry is one rendered feed line.
type Entry struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Feed is a fixed-capacity, most-recent-first win list.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int64
	rev     uint64
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{nextID: 1}
}

// Add synthesizes and prepends a "<name> won <prize>" entry, evicting
// beyond capacity.
func (f *Feed) Add(name, prizeName string) {
	f.Append(fmt.Sprintf("%s won %s", name, prizeName))
}

// Append prepends a pre-rendered entry, evicting beyond capacity.
func (f *Feed) Append(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prependLocked(text)
	f.rev++
}

// Replace swaps the whole list for a server-provided one, newest first.
// Input beyond capacity is truncated.
func (f *Feed) Replace(texts []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = f.entries[:0]
	if len(texts) > Capacity {
		texts = texts[:Capacity]
	}
	// prepend in reverse so texts[0] ends up most recent
	for i := len(texts) - 1; i >= 0; i-- {
		f.prependLocked(texts[i])
	}
	f.rev++
}

func (f *Feed) prependLocked(text string) {
	entry := Entry{ID: f.nextID, Text: text}
	f.nextID++
	f.entries = append([]Entry{entry}, f.entries...)
	if len(f.entries) > Capacity {
		f.entries = f.entries[:Capacity]
	}
}

// Entries returns a copy of the current list, most recent first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Revision increments on every mutation; displays use it to skip
// redundant feed re-renders.
func (f *Feed) Revision() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rev
}

// Len returns the current entry count.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Package selection tracks which (file, channel) pairs a batch action
// targets. Entries for closed files are pruned synchronously, so the
// model never holds dangling handles.
package selection

import (
	"fmt"

	"github.com/scanprobe/spmbatch/internal/host"
)

// Entry is one targeted (file, channel) pair.
type Entry struct {
	File    *host.File
	Channel *host.Channel
}

// Model is an ordered, index-addressable selection. Order is significant:
// replay visits entries in selection order.
type Model struct {
	entries []Entry
}

// New creates an empty selection.
func New() *Model {
	return &Model{}
}

// Add appends an entry unless the same (file, channel) pair is already
// selected.
func (m *Model) Add(f *host.File, ch *host.Channel) {
	for _, e := range m.entries {
		if e.File == f && e.Channel == ch {
			return
		}
	}
	m.entries = append(m.entries, Entry{File: f, Channel: ch})
}

// Remove drops the entry for the given pair, if present.
func (m *Model) Remove(f *host.File, ch *host.Channel) {
	for i, e := range m.entries {
		if e.File == f && e.Channel == ch {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of selected pairs.
func (m *Model) Len() int { return len(m.entries) }

// At returns the i-th entry in selection order.
func (m *Model) At(i int) Entry { return m.entries[i] }

// Entries returns the selection in order. The slice is a copy.
func (m *Model) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// PruneFile removes every entry belonging to the closed file. Hook this to
// the host's close notification so pruning happens before handles go
// stale.
func (m *Model) PruneFile(fileID string) {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.File.ID != fileID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}

// SelectAll selects every channel of every open file, in browser order.
func SelectAll(h host.Host) *Model {
	m := New()
	for _, f := range h.ListFiles() {
		for _, ch := range h.ListChannels(f) {
			m.Add(f, ch)
		}
	}
	return m
}

// SelectIndex selects the n-th channel (0-based) of every open file that
// has one. This mirrors the host browser's "n-th data channels" picker.
func SelectIndex(h host.Host, n int) *Model {
	m := New()
	for _, f := range h.ListFiles() {
		chans := h.ListChannels(f)
		if n >= 0 && n < len(chans) {
			m.Add(f, chans[n])
		}
	}
	return m
}

// SelectNamed selects channels by "file" or "file:channel" references.
// Unknown references are an error: a batch aimed at a missing target is a
// user mistake, not a partial failure.
func SelectNamed(h host.Host, refs []string) (*Model, error) {
	m := New()
	for _, ref := range refs {
		fileName, chanName := splitRef(ref)
		var file *host.File
		for _, f := range h.ListFiles() {
			if f.Name == fileName {
				file = f
				break
			}
		}
		if file == nil {
			return nil, fmt.Errorf("no open file named %q", fileName)
		}
		if chanName == "" {
			for _, ch := range h.ListChannels(file) {
				m.Add(file, ch)
			}
			continue
		}
		found := false
		for _, ch := range h.ListChannels(file) {
			if ch.Name == chanName {
				m.Add(file, ch)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("file %q has no channel named %q", fileName, chanName)
		}
	}
	return m, nil
}

func splitRef(ref string) (file, channel string) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:]
		}
	}
	return ref, ""
}

package allocator

import "fmt"

// AdditionalLabel is the report label for rows removed by the fallback pass.
const AdditionalLabel = "additional"

// Key identifies a plan entry: either one (file name, value) combination or
// the additional fallback removal.
type Key struct {
	FileName   string
	Value      string
	Additional bool
}

// String renders the key the way the removal report prints it.
func (k Key) String() string {
	if k.Additional {
		return AdditionalLabel
	}
	return fmt.Sprintf("(%s, %s)", k.FileName, k.Value)
}

// Entry is the number of rows removed for one key.
type Entry struct {
	Key   Key
	Count int
}

// Plan records how many rows were removed per combination, in the order the
// removals happened. A Plan is read-only once returned by Allocate.
type Plan struct {
	entries []Entry
}

func (p *Plan) add(k Key, n int) {
	p.entries = append(p.entries, Entry{Key: k, Count: n})
}

// Entries returns a copy of the plan entries.
func (p *Plan) Entries() []Entry {
	if p == nil {
		return nil
	}
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of recorded entries.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Total is the sum of all entry counts.
func (p *Plan) Total() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, e := range p.entries {
		n += e.Count
	}
	return n
}

// Lookup returns the count recorded for a combination.
func (p *Plan) Lookup(fileName, value string) (int, bool) {
	if p == nil {
		return 0, false
	}
	for _, e := range p.entries {
		if !e.Key.Additional && e.Key.FileName == fileName && e.Key.Value == value {
			return e.Count, true
		}
	}
	return 0, false
}

// Additional returns the count removed by the fallback pass, 0 if none.
func (p *Plan) Additional() int {
	if p == nil {
		return 0
	}
	for _, e := range p.entries {
		if e.Key.Additional {
			return e.Count
		}
	}
	return 0
}

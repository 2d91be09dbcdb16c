package rewrite

import (
	"sort"
	"sync"

	"github.com/sarrazip/cmoc6809/pkg/asm"
)

// Firing records one successful rule application: which rule, where, and
// a rough estimate of the bytes it saved (inherent-addressing 6809
// instructions are typically one byte shorter than their operand-bearing
// counterparts, so instructions commented out or narrowed save roughly
// that much; this is a reporting estimate, not the assembler's real
// instruction-length table).
type Firing struct {
	RuleName   string
	Index      int
	BytesSaved int
}

// Report accumulates Firings across one or more Engine.Run calls — e.g.
// one per function in a translation unit — so a build can report total
// savings across the whole unit.
//
// Grounded on pkg/result.Table: a mutex-guarded slice with
// an Add/sorted-Rules/Len API, generalized from "discovered superoptimizer
// rule with byte/cycle savings" to "rewrite rule firing with an estimated
// byte saving", since this package's rules are applied once during
// compilation rather than discovered by search.
type Report struct {
	mu      sync.Mutex
	firings []Firing
}

// NewReport returns an empty Report.
func NewReport() *Report {
	return &Report{}
}

// Add records one rule firing.
func (r *Report) Add(f Firing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firings = append(r.firings, f)
}

// Firings returns every recorded firing, sorted by estimated bytes saved
// descending (ties broken by rule name for determinism).
func (r *Report) Firings() []Firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Firing, len(r.firings))
	copy(out, r.firings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].BytesSaved != out[j].BytesSaved {
			return out[i].BytesSaved > out[j].BytesSaved
		}
		return out[i].RuleName < out[j].RuleName
	})
	return out
}

// Len returns the number of firings recorded so far.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.firings)
}

// TotalBytesSaved sums every firing's estimated saving.
func (r *Report) TotalBytesSaved() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, f := range r.firings {
		total += f.BytesSaved
	}
	return total
}

// estimateBytesSaved gives a rough instruction-length estimate for the
// opcode a rule removed or narrowed: 1 byte for an inherent-addressing
// mnemonic (no operand required), 2 otherwise — a deliberately simple
// stand-in for the real assembler's instruction-length table, which this
// package does not have access to (only the emitted mnemonics cross the
// Emitter boundary, not encoded bytes).
func estimateBytesSaved(opcode string) int {
	if !asm.MustHaveOperand(opcode) {
		return 1
	}
	return 2
}

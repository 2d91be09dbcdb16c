package session

import (
	"encoding/gob"
	"os"

	"github.com/sarrazip/cmoc6809/pkg/asm"
)

// Checkpoint captures enough of a Session and its element store to resume
// a rewrite pass that was interrupted mid-fixpoint — useful for a very
// large translation unit run under a wall-clock-limited build step.
//
// Grounded on pkg/result.Checkpoint (gob-encoded resumable
// search state); RulesApplied here plays the role CompletedTarget plays
// there — a count of completed rewrite-engine iterations.
type Checkpoint struct {
	Target       Target
	EnableStage2 bool
	Elements     []asm.Element
	RulesApplied int
}

func init() {
	gob.Register(asm.Element{})
}

// Save writes a checkpoint to path.
func Save(path string, c *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(c)
}

// Load reads a checkpoint previously written by Save.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c Checkpoint
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

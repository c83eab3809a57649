package snapshot

import (
	_ "embed"
	"fmt"
)

//go:embed baseline.json
var baselineJSON []byte

// Baseline returns the designated baseline fixture used when the live data
// source is unavailable. Each call returns a fresh copy.
func Baseline() *Snapshot {
	snap, err := Parse(baselineJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded baseline snapshot is invalid: %v", err))
	}
	return snap
}

// BaselineJSON returns the raw embedded baseline document.
func BaselineJSON() []byte {
	out := make([]byte, len(baselineJSON))
	copy(out, baselineJSON)
	return out
}

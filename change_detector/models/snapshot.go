package models

import "time"

// FileSnapshot maps an absolute file path to its modification time in
// nanoseconds since the Unix epoch. A snapshot is never mutated after it has
// been captured.
type FileSnapshot map[string]int64

// Fingerprints maps an absolute file path to the xxh3 hash of its content.
type Fingerprints map[string]uint64

// ProjectSnapshot is a timestamped FileSnapshot of one project root.
type ProjectSnapshot struct {
	RootDir    string       `json:"root_dir"`
	CapturedAt time.Time    `json:"captured_at"`
	Files      FileSnapshot `json:"files"`
}

// Len returns the number of files in the snapshot.
func (p *ProjectSnapshot) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Files)
}

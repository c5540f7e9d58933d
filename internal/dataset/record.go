// Package dataset walks the Train/Test -> project -> session hierarchy of a
// pose benchmark dataset, checks the structural rules, and builds the
// per-session inventory that cross-referencing runs against.
package dataset

import (
	"github.com/poseinterface/posecheck/internal/grammar"
)

// Split names at the dataset root.
const (
	SplitTrain = "Train"
	SplitTest  = "Test"
)

// Subfolder names inside a session.
const (
	framesDirName = "Frames"
	clipsDirName  = "Clips"
)

// FrameFile is one frame image discovered in a session's Frames folder.
type FrameFile struct {
	Name   string
	Path   string
	Parsed *grammar.ParsedName
}

// LabelRef points at a label file discovered during the walk. The label
// content is parsed later, per session, by the engine.
type LabelRef struct {
	Name   string
	Path   string
	Parsed *grammar.ParsedName
}

// ClipFile is one clip video, paired in Train with its clip label file.
type ClipFile struct {
	Name   string
	Path   string
	Parsed *grammar.ParsedName
	Label  *LabelRef // nil when unpaired (Test, or a structural violation)
}

// SessionRecord is the full inventory of one session folder.
type SessionRecord struct {
	Split     string
	Project   string
	Path      string
	SubjectID string
	SessionID string

	VideoName   string
	Frames      []FrameFile
	FrameLabels []LabelRef
	Clips       []ClipFile
}

// IsTrain reports whether the session belongs to the Train split.
func (s *SessionRecord) IsTrain() bool {
	return s.Split == SplitTrain
}

// FrameNames returns the set of frame image filenames in the session,
// keyed for exact file_name matching during cross-referencing.
func (s *SessionRecord) FrameNames() map[string]bool {
	names := make(map[string]bool, len(s.Frames))
	for _, f := range s.Frames {
		names[f.Name] = true
	}
	return names
}

// Inventory is the result of a structural walk: every discovered session,
// regardless of how many findings its folders produced.
type Inventory struct {
	Sessions []*SessionRecord
}

// WalkOptions controls which parts of the dataset are traversed.
type WalkOptions struct {
	// Splits restricts traversal to a subset of {Train, Test}.
	// Empty means both.
	Splits []string
}

func (o WalkOptions) wantSplit(name string) bool {
	if len(o.Splits) == 0 {
		return true
	}
	for _, s := range o.Splits {
		if s == name {
			return true
		}
	}
	return false
}

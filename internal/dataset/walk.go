package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poseinterface/posecheck/internal/grammar"
	"github.com/poseinterface/posecheck/internal/report"
)

// Walk enumerates the dataset tree rooted at root and checks every
// structural rule: split presence, project and session cardinality, session
// video uniqueness, Frames/Clips layout, Train label pairing, Test label
// leakage, and zero-padding consistency.
//
// Walk never fails fast: it collects one finding per violated rule and
// always returns the full session inventory it could build. The returned
// error is reserved for an unreadable root.
func Walk(root string, opts WalkOptions) (*Inventory, []report.Finding, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset root: %w", err)
	}

	w := &walker{opts: opts}

	seen := make(map[string]bool, 2)
	dirs := make(map[string]bool, 2)
	for _, entry := range entries {
		name := entry.Name()
		if name != SplitTrain && name != SplitTest {
			w.structural(filepath.Join(root, name), "unexpected entry %q at dataset root, want exactly %s and %s", name, SplitTrain, SplitTest)
			continue
		}
		seen[name] = true
		if !entry.IsDir() {
			w.structural(filepath.Join(root, name), "split %q must be a directory", name)
			continue
		}
		dirs[name] = true
	}
	for _, split := range []string{SplitTrain, SplitTest} {
		if !opts.wantSplit(split) {
			continue
		}
		// A split present as a plain file was already reported above.
		if !seen[split] {
			w.structural(root, "missing split directory %q", split)
			continue
		}
		if dirs[split] {
			w.walkSplit(filepath.Join(root, split), split)
		}
	}

	return &Inventory{Sessions: w.sessions}, w.findings, nil
}

type walker struct {
	opts     WalkOptions
	findings []report.Finding
	sessions []*SessionRecord
}

func (w *walker) structural(path, format string, args ...any) {
	w.add(report.SeverityError, report.KindStructure, path, format, args...)
}

func (w *walker) advisory(path, format string, args ...any) {
	w.add(report.SeverityAdvisory, report.KindStructure, path, format, args...)
}

func (w *walker) grammarErr(path string, err error) {
	w.add(report.SeverityError, report.KindGrammar, path, "%v", err)
}

func (w *walker) add(sev report.Severity, kind report.Kind, path, format string, args ...any) {
	w.findings = append(w.findings, report.Finding{
		Severity: sev,
		Kind:     kind,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (w *walker) readDir(path string) []os.DirEntry {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.structural(path, "cannot read directory: %v", err)
		return nil
	}
	return entries
}

func (w *walker) walkSplit(path, split string) {
	projects := 0
	for _, entry := range w.readDir(path) {
		if !entry.IsDir() {
			w.structural(filepath.Join(path, entry.Name()), "unexpected file at split level, want project directories only")
			continue
		}
		projects++
		w.walkProject(filepath.Join(path, entry.Name()), split, entry.Name())
	}
	if projects == 0 {
		w.structural(path, "split %q must contain at least one project", split)
	}
}

func (w *walker) walkProject(path, split, project string) {
	sessions := 0
	for _, entry := range w.readDir(path) {
		entryPath := filepath.Join(path, entry.Name())
		if !entry.IsDir() {
			w.structural(entryPath, "unexpected file at project level, want session directories only")
			continue
		}
		parsed, err := grammar.ParseSessionDirName(entry.Name())
		if err != nil {
			w.grammarErr(entryPath, err)
			continue
		}
		sessions++
		w.walkSession(entryPath, split, project, parsed)
	}
	if sessions == 0 {
		w.structural(path, "project %q must contain at least one session", project)
	}
}

func (w *walker) walkSession(path, split, project string, dirName *grammar.ParsedName) {
	rec := &SessionRecord{
		Split:     split,
		Project:   project,
		Path:      path,
		SubjectID: dirName.SubjectID,
		SessionID: dirName.SessionID,
	}
	w.sessions = append(w.sessions, rec)

	var framesPath, clipsPath string
	videos := 0
	for _, entry := range w.readDir(path) {
		name := entry.Name()
		entryPath := filepath.Join(path, name)

		if entry.IsDir() {
			switch name {
			case framesDirName:
				framesPath = entryPath
			case clipsDirName:
				clipsPath = entryPath
			default:
				w.structural(entryPath, "unexpected directory %q in session, want %s and optional %s", name, framesDirName, clipsDirName)
			}
			continue
		}

		parsed, err := grammar.Parse(name)
		if err != nil {
			w.grammarErr(entryPath, err)
			continue
		}
		if parsed.Class != grammar.ClassSessionVideo {
			w.structural(entryPath, "misplaced %s file at session root", parsed.Class)
			continue
		}
		if !w.identityMatches(rec, parsed, entryPath) {
			continue
		}
		videos++
		rec.VideoName = name
	}

	if videos == 0 {
		w.structural(path, "session has no video file, want exactly one %s", grammar.ClassSessionVideo)
	} else if videos > 1 {
		w.structural(path, "session has %d video files, want exactly one", videos)
	}

	if framesPath == "" {
		w.structural(path, "session is missing its %s directory", framesDirName)
	} else {
		w.walkFrames(framesPath, rec)
	}
	if clipsPath != "" {
		w.walkClips(clipsPath, rec)
	}
}

// identityMatches checks that a parsed filename carries the session's
// subject and session ids, emitting a structural finding when it does not.
func (w *walker) identityMatches(rec *SessionRecord, parsed *grammar.ParsedName, path string) bool {
	if parsed.SubjectID != rec.SubjectID || parsed.SessionID != rec.SessionID {
		w.structural(path, "file identity %s does not match session %s",
			parsed.SessionKey(), rec.SubjectID+"/"+rec.SessionID)
		return false
	}
	return true
}

// isLabelLeak flags any label JSON inside a Test split folder, regardless of
// whether the name parses. Test sessions must carry no annotations at all.
func (w *walker) isLabelLeak(rec *SessionRecord, name, path string) bool {
	if rec.IsTrain() || !strings.HasSuffix(name, "labels.json") {
		return false
	}
	w.structural(path, "label file is not allowed in the %s split", SplitTest)
	return true
}

func (w *walker) walkFrames(path string, rec *SessionRecord) {
	frameIDs := make(map[string]map[int]bool)    // camera -> frame index set
	frameWidths := make(map[string]map[int]bool) // camera -> padding widths
	labelCount := make(map[string]int)           // camera -> frame label files

	for _, entry := range w.readDir(path) {
		name := entry.Name()
		entryPath := filepath.Join(path, name)
		if entry.IsDir() {
			w.structural(entryPath, "unexpected directory in %s folder", framesDirName)
			continue
		}
		if w.isLabelLeak(rec, name, entryPath) {
			continue
		}

		parsed, err := grammar.Parse(name)
		if err != nil {
			w.grammarErr(entryPath, err)
			continue
		}

		switch parsed.Class {
		case grammar.ClassFrameImage:
			if !w.identityMatches(rec, parsed, entryPath) {
				continue
			}
			index, err := parsed.FrameIndex()
			if err != nil {
				w.structural(entryPath, "frame id %q is not a valid integer: %v", parsed.Frame, err)
				continue
			}
			if frameIDs[parsed.CameraID] == nil {
				frameIDs[parsed.CameraID] = make(map[int]bool)
				frameWidths[parsed.CameraID] = make(map[int]bool)
			}
			if frameIDs[parsed.CameraID][index] {
				w.structural(entryPath, "duplicate frame id %d for camera %q", index, parsed.CameraID)
			}
			frameIDs[parsed.CameraID][index] = true
			frameWidths[parsed.CameraID][len(parsed.Frame)] = true
			rec.Frames = append(rec.Frames, FrameFile{Name: name, Path: entryPath, Parsed: parsed})

		case grammar.ClassFrameLabels:
			if !w.identityMatches(rec, parsed, entryPath) {
				continue
			}
			labelCount[parsed.CameraID]++
			rec.FrameLabels = append(rec.FrameLabels, LabelRef{Name: name, Path: entryPath, Parsed: parsed})

		default:
			w.structural(entryPath, "misplaced %s file in %s folder", parsed.Class, framesDirName)
		}
	}

	for cam, widths := range frameWidths {
		if len(widths) > 1 {
			w.structural(path, "frame ids for camera %q use mixed zero-padding widths", cam)
		}
	}

	if rec.IsTrain() {
		for cam := range frameIDs {
			switch labelCount[cam] {
			case 0:
				w.structural(path, "missing frame label file for camera %q", cam)
			case 1:
				// exactly one per camera, as required
			default:
				w.structural(path, "%d frame label files for camera %q, want exactly one", labelCount[cam], cam)
			}
		}
		for cam, n := range labelCount {
			if frameIDs[cam] == nil {
				w.structural(path, "%d frame label file(s) for camera %q which has no frame images", n, cam)
			}
		}
		if len(frameIDs) > 1 {
			w.advisory(path, "session has %d cameras; multi-camera frame labeling is out of scope for validation", len(frameIDs))
		}
	}
}

func (w *walker) walkClips(path string, rec *SessionRecord) {
	type clipKey struct{ cam, start, dur string }

	labels := make(map[clipKey][]*LabelRef)
	startWidths := make(map[string]map[int]bool) // camera -> padding widths
	var clips []*ClipFile

	for _, entry := range w.readDir(path) {
		name := entry.Name()
		entryPath := filepath.Join(path, name)
		if entry.IsDir() {
			w.structural(entryPath, "unexpected directory in %s folder", clipsDirName)
			continue
		}
		if w.isLabelLeak(rec, name, entryPath) {
			continue
		}

		parsed, err := grammar.Parse(name)
		if err != nil {
			w.grammarErr(entryPath, err)
			continue
		}

		switch parsed.Class {
		case grammar.ClassClipVideo:
			if !w.identityMatches(rec, parsed, entryPath) {
				continue
			}
			dur, err := parsed.Duration()
			if err != nil {
				w.structural(entryPath, "clip duration %q is not a valid integer: %v", parsed.Dur, err)
				continue
			}
			if dur < 1 {
				w.structural(entryPath, "clip duration must be at least 1, found %d", dur)
				continue
			}
			if startWidths[parsed.CameraID] == nil {
				startWidths[parsed.CameraID] = make(map[int]bool)
			}
			startWidths[parsed.CameraID][len(parsed.Start)] = true
			clips = append(clips, &ClipFile{Name: name, Path: entryPath, Parsed: parsed})

		case grammar.ClassClipLabels:
			if !w.identityMatches(rec, parsed, entryPath) {
				continue
			}
			key := clipKey{cam: parsed.CameraID, start: parsed.Start, dur: parsed.Dur}
			labels[key] = append(labels[key], &LabelRef{Name: name, Path: entryPath, Parsed: parsed})

		default:
			w.structural(entryPath, "misplaced %s file in %s folder", parsed.Class, clipsDirName)
		}
	}

	paired := make(map[clipKey]bool)
	for _, clip := range clips {
		key := clipKey{cam: clip.Parsed.CameraID, start: clip.Parsed.Start, dur: clip.Parsed.Dur}
		if rec.IsTrain() {
			switch refs := labels[key]; len(refs) {
			case 0:
				w.structural(clip.Path, "clip has no matching clip label file")
			case 1:
				clip.Label = refs[0]
			default:
				w.structural(clip.Path, "clip has %d matching clip label files, want exactly one", len(refs))
			}
		}
		paired[key] = true
		rec.Clips = append(rec.Clips, *clip)
	}

	for key, refs := range labels {
		if !paired[key] {
			for _, ref := range refs {
				w.structural(ref.Path, "clip label file has no matching clip video")
			}
		}
	}

	for cam, widths := range startWidths {
		if len(widths) > 1 {
			w.structural(path, "clip start ids for camera %q use mixed zero-padding widths", cam)
		}
	}
}

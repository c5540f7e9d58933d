// Package grammar implements the key-value filename grammar used throughout
// a pose benchmark dataset: underscore-joined `<key>-<value>` segments with
// an optional trailing bare suffix before the extension.
//
// Parsing is pure: no filesystem access, no state. The same grammar covers
// session videos, frame images, clip videos, label files, session folder
// names, and the extension-less image references embedded in clip label
// documents.
package grammar

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Class identifies which filename class a parsed name matched.
type Class string

const (
	// ClassSessionVideo matches `sub-<s>_ses-<se>_cam-<c>.mp4`.
	ClassSessionVideo Class = "session-video"
	// ClassFrameImage matches `sub-<s>_ses-<se>_cam-<c>_frame-<n>.png`.
	ClassFrameImage Class = "frame-image"
	// ClassClipVideo matches `sub-<s>_ses-<se>_cam-<c>_start-<n>_dur-<m>.mp4`.
	ClassClipVideo Class = "clip-video"
	// ClassFrameLabels matches `sub-<s>_ses-<se>_cam-<c>_framelabels.json`.
	ClassFrameLabels Class = "frame-labels"
	// ClassClipLabels matches `sub-<s>_ses-<se>_cam-<c>_start-<n>_dur-<m>_cliplabels.json`.
	ClassClipLabels Class = "clip-labels"
	// ClassSessionDir matches a session folder name `sub-<s>_ses-<se>`.
	ClassSessionDir Class = "session-dir"
)

// Filename grammar keys in their mandatory order.
const (
	keySubject = "sub"
	keySession = "ses"
	keyCamera  = "cam"
	keyFrame   = "frame"
	keyStart   = "start"
	keyDur     = "dur"
)

// Legal bare suffixes.
const (
	suffixFrameLabels = "framelabels"
	suffixClipLabels  = "cliplabels"
)

// Expected extensions per class.
const (
	extVideo = ".mp4"
	extImage = ".png"
	extLabel = ".json"
)

// ParsedName is the typed result of parsing a dataset name. Numeric values
// are retained as their raw zero-padded text so that padding-width checks
// and round-trip serialization are lossless.
type ParsedName struct {
	Class     Class
	SubjectID string
	SessionID string
	CameraID  string
	Frame     string // frame images only
	Start     string // clip videos and clip labels
	Dur       string // clip videos and clip labels
	Ext       string // original extension, empty for folder names and clip image refs
}

// String re-serializes the name. For any name accepted by Parse, the result
// is byte-identical to the input.
func (p *ParsedName) String() string {
	parts := []string{keySubject + "-" + p.SubjectID, keySession + "-" + p.SessionID}
	if p.Class != ClassSessionDir {
		parts = append(parts, keyCamera+"-"+p.CameraID)
	}
	switch p.Class {
	case ClassFrameImage:
		parts = append(parts, keyFrame+"-"+p.Frame)
	case ClassClipVideo:
		parts = append(parts, keyStart+"-"+p.Start, keyDur+"-"+p.Dur)
	case ClassFrameLabels:
		parts = append(parts, suffixFrameLabels)
	case ClassClipLabels:
		parts = append(parts, keyStart+"-"+p.Start, keyDur+"-"+p.Dur, suffixClipLabels)
	}
	return strings.Join(parts, "_") + p.Ext
}

// SessionKey returns the `sub-<s>_ses-<se>` form of the name's identity.
func (p *ParsedName) SessionKey() string {
	return keySubject + "-" + p.SubjectID + "_" + keySession + "-" + p.SessionID
}

// FrameIndex returns the integer value of the frame field.
func (p *ParsedName) FrameIndex() (int, error) {
	return strconv.Atoi(p.Frame)
}

// StartIndex returns the integer value of the start field.
func (p *ParsedName) StartIndex() (int, error) {
	return strconv.Atoi(p.Start)
}

// Duration returns the integer value of the dur field.
func (p *ParsedName) Duration() (int, error) {
	return strconv.Atoi(p.Dur)
}

// Error describes why a name failed the grammar, with the byte position of
// the offending token in the original name.
type Error struct {
	Name     string
	Reason   string
	Position int
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid name %q at position %d: %s", e.Name, e.Position, e.Reason)
}

func errorf(name string, pos int, format string, args ...any) *Error {
	return &Error{Name: name, Reason: fmt.Sprintf(format, args...), Position: pos}
}

// segment is one underscore-delimited token of the stem, with its byte
// offset in the original name.
type segment struct {
	text string
	pos  int
}

func splitSegments(stem string) []segment {
	var segs []segment
	start := 0
	for i := 0; i <= len(stem); i++ {
		if i == len(stem) || stem[i] == '_' {
			segs = append(segs, segment{text: stem[start:i], pos: start})
			start = i + 1
		}
	}
	return segs
}

// keyValue splits a segment on its first hyphen. ok is false for bare
// segments (no hyphen at all).
func (s segment) keyValue() (key, value string, ok bool) {
	i := strings.IndexByte(s.text, '-')
	if i < 0 {
		return "", "", false
	}
	return s.text[:i], s.text[i+1:], true
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Parse tokenizes and classifies a filename against the grammar. It returns
// a typed ParsedName on success or a *Error describing the first violation.
func Parse(filename string) (*ParsedName, error) {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	p, err := parseStem(filename, stem)
	if err != nil {
		return nil, err
	}
	p.Ext = ext
	if err := checkExtension(filename, p, ext); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseSessionDirName applies the restricted session-folder grammar:
// `sub-<subjectID>_ses-<sessionID>` with no camera field and no extension.
func ParseSessionDirName(name string) (*ParsedName, error) {
	segs := splitSegments(name)
	p := &ParsedName{Class: ClassSessionDir}
	var err error
	if p.SubjectID, err = takeValue(name, segs, 0, keySubject, isAlnum, "alphanumeric"); err != nil {
		return nil, err
	}
	if p.SessionID, err = takeValue(name, segs, 1, keySession, isAlnum, "alphanumeric"); err != nil {
		return nil, err
	}
	if len(segs) > 2 {
		return nil, errorf(name, segs[2].pos, "unexpected segment %q after %s", segs[2].text, keySession)
	}
	return p, nil
}

// ParseClipImageRef parses an image reference embedded in a clip label
// document: a frame-image name that must not carry a file extension.
func ParseClipImageRef(name string) (*ParsedName, error) {
	if ext := path.Ext(name); ext != "" {
		return nil, errorf(name, len(name)-len(ext), "image reference must not carry an extension, found %q", ext)
	}
	p, err := parseStem(name, name)
	if err != nil {
		return nil, err
	}
	if p.Class != ClassFrameImage {
		return nil, errorf(name, 0, "image reference must name a frame, matched %s", p.Class)
	}
	return p, nil
}

// takeValue extracts the value of the expected key at segment index i,
// enforcing the key order and the value character class.
func takeValue(name string, segs []segment, i int, key string, classOK func(string) bool, className string) (string, error) {
	if i >= len(segs) {
		return "", errorf(name, len(name), "missing mandatory key %q", key)
	}
	seg := segs[i]
	k, v, ok := seg.keyValue()
	if !ok {
		return "", errorf(name, seg.pos, "segment %q is not a key-value pair (expected key %q)", seg.text, key)
	}
	if k != key {
		return "", errorf(name, seg.pos, "expected key %q, found %q", key, k)
	}
	if !classOK(v) {
		return "", errorf(name, seg.pos+len(k)+1, "value %q for key %q is not %s", v, key, className)
	}
	return v, nil
}

// parseStem classifies the extension-less part of a name into one of the
// file classes. Session folder names go through ParseSessionDirName instead.
func parseStem(name, stem string) (*ParsedName, error) {
	segs := splitSegments(stem)
	p := &ParsedName{}
	var err error
	if p.SubjectID, err = takeValue(name, segs, 0, keySubject, isAlnum, "alphanumeric"); err != nil {
		return nil, err
	}
	if p.SessionID, err = takeValue(name, segs, 1, keySession, isAlnum, "alphanumeric"); err != nil {
		return nil, err
	}
	if p.CameraID, err = takeValue(name, segs, 2, keyCamera, isAlnum, "alphanumeric"); err != nil {
		return nil, err
	}

	rest := segs[3:]
	if len(rest) == 0 {
		p.Class = ClassSessionVideo
		return p, nil
	}

	first := rest[0]
	key, _, isKV := first.keyValue()
	switch {
	case !isKV && first.text == suffixFrameLabels:
		p.Class = ClassFrameLabels
		if len(rest) > 1 {
			return nil, errorf(name, rest[1].pos, "unexpected segment %q after suffix %q", rest[1].text, suffixFrameLabels)
		}
		return p, nil

	case isKV && key == keyFrame:
		p.Class = ClassFrameImage
		if p.Frame, err = takeValue(name, segs, 3, keyFrame, isDigits, "numeric"); err != nil {
			return nil, err
		}
		if len(rest) > 1 {
			return nil, errorf(name, rest[1].pos, "unexpected segment %q after key %q", rest[1].text, keyFrame)
		}
		return p, nil

	case isKV && key == keyStart:
		if p.Start, err = takeValue(name, segs, 3, keyStart, isDigits, "numeric"); err != nil {
			return nil, err
		}
		if p.Dur, err = takeValue(name, segs, 4, keyDur, isDigits, "numeric"); err != nil {
			return nil, err
		}
		switch {
		case len(rest) == 2:
			p.Class = ClassClipVideo
		case len(rest) == 3 && rest[2].text == suffixClipLabels:
			p.Class = ClassClipLabels
		case len(rest) == 3:
			return nil, errorf(name, rest[2].pos, "unknown suffix %q (legal suffixes: %s, %s)", rest[2].text, suffixFrameLabels, suffixClipLabels)
		default:
			return nil, errorf(name, rest[3].pos, "unexpected segment %q after suffix position", rest[3].text)
		}
		return p, nil

	case !isKV:
		return nil, errorf(name, first.pos, "unknown suffix %q (legal suffixes: %s, %s)", first.text, suffixFrameLabels, suffixClipLabels)

	default:
		return nil, errorf(name, first.pos, "unexpected key %q after %q (expected %q, %q, or a suffix)", key, keyCamera, keyFrame, keyStart)
	}
}

func checkExtension(name string, p *ParsedName, ext string) error {
	var want string
	switch p.Class {
	case ClassSessionVideo, ClassClipVideo:
		want = extVideo
	case ClassFrameImage:
		want = extImage
	case ClassFrameLabels, ClassClipLabels:
		want = extLabel
	default:
		return nil
	}
	if ext != want {
		return errorf(name, len(name)-len(ext), "%s name requires extension %q, found %q", p.Class, want, ext)
	}
	return nil
}

// FormatFrameIndex renders a frame index with the given zero-padding width,
// matching the on-disk filename convention.
func FormatFrameIndex(index, width int) string {
	return fmt.Sprintf("%0*d", width, index)
}

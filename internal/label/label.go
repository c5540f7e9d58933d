// Package label parses COCO-style keypoint label files into typed documents
// and checks schema-level invariants: required arrays, unique ids, ternary
// keypoint visibility.
//
// Label JSON is duck-typed: arbitrary extra keys are tolerated. Recognized
// keys are decoded into struct fields; everything else is preserved in an
// opaque Extra bag and never interpreted.
package label

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/poseinterface/posecheck/internal/report"
)

// Visibility codes for a keypoint, the third value of each (x, y, v) triplet.
const (
	VisibilityUnlabeled = 0
	VisibilityOccluded  = 1
	VisibilityVisible   = 2
)

// ImageEntry is one element of the images array.
type ImageEntry struct {
	ID       int
	FileName string
	Width    int
	Height   int
	Extra    map[string]json.RawMessage
}

// Annotation is one element of the annotations array. Keypoints is the flat
// COCO layout: x, y, visibility repeated per keypoint.
type Annotation struct {
	ID           int
	ImageID      int
	CategoryID   int
	Keypoints    []float64
	NumKeypoints int
	Extra        map[string]json.RawMessage
}

// Category is one element of the categories array.
type Category struct {
	ID        int
	Name      string
	Keypoints []string
	Extra     map[string]json.RawMessage
}

// Document is the shared parsed form of a label file.
type Document struct {
	Images      []ImageEntry
	Annotations []Annotation
	Categories  []Category
	Extra       map[string]json.RawMessage
}

// FrameDocument is a frame label file: image ids are session-video frame
// indices.
type FrameDocument struct {
	Document
}

// ClipDocument is a clip label file: image ids are 0-based positions within
// the clip, with the video frame index embedded in each file_name.
type ClipDocument struct {
	Document
}

func (e *ImageEntry) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	e.Extra = fields
	if err := takeField(fields, "id", &e.ID); err != nil {
		return err
	}
	if err := takeField(fields, "file_name", &e.FileName); err != nil {
		return err
	}
	if err := takeField(fields, "width", &e.Width); err != nil {
		return err
	}
	return takeField(fields, "height", &e.Height)
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	a.Extra = fields
	if err := takeField(fields, "id", &a.ID); err != nil {
		return err
	}
	if err := takeField(fields, "image_id", &a.ImageID); err != nil {
		return err
	}
	if err := takeField(fields, "category_id", &a.CategoryID); err != nil {
		return err
	}
	if err := takeField(fields, "keypoints", &a.Keypoints); err != nil {
		return err
	}
	return takeField(fields, "num_keypoints", &a.NumKeypoints)
}

func (c *Category) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	c.Extra = fields
	if err := takeField(fields, "id", &c.ID); err != nil {
		return err
	}
	if err := takeField(fields, "name", &c.Name); err != nil {
		return err
	}
	return takeField(fields, "keypoints", &c.Keypoints)
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// takeField decodes a recognized key into dst and removes it from the extra
// bag. A missing key leaves dst at its zero value; presence requirements are
// checked at the schema level, not during decoding.
func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	return nil
}

// ParseFrameLabels parses and schema-checks a frame label file. A fatal
// problem (unreadable file, malformed JSON, missing required array) yields a
// nil document and a single schema finding; the caller skips
// cross-referencing for that file only.
func ParseFrameLabels(path string) (*FrameDocument, []report.Finding) {
	doc, findings := parseDocument(path)
	if doc == nil {
		return nil, findings
	}
	return &FrameDocument{Document: *doc}, findings
}

// ParseClipLabels parses and schema-checks a clip label file.
func ParseClipLabels(path string) (*ClipDocument, []report.Finding) {
	doc, findings := parseDocument(path)
	if doc == nil {
		return nil, findings
	}
	return &ClipDocument{Document: *doc}, findings
}

func fatal(path, format string, args ...any) []report.Finding {
	return []report.Finding{{
		Severity: report.SeverityError,
		Kind:     report.KindSchema,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}}
}

func parseDocument(path string) (*Document, []report.Finding) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fatal(path, "cannot read label file: %v", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fatal(path, "malformed JSON: %v", err)
	}

	doc := &Document{Extra: top}
	required := []struct {
		key string
		dst any
	}{
		{"images", &doc.Images},
		{"annotations", &doc.Annotations},
		{"categories", &doc.Categories},
	}
	for _, r := range required {
		raw, ok := top[r.key]
		if !ok {
			return nil, fatal(path, "missing required array %q", r.key)
		}
		delete(top, r.key)
		if err := json.Unmarshal(raw, r.dst); err != nil {
			return nil, fatal(path, "key %q must be an array of valid entries: %v", r.key, err)
		}
	}

	return doc, checkSchema(path, doc)
}

// checkSchema runs the non-fatal schema invariants over a parsed document.
func checkSchema(path string, doc *Document) []report.Finding {
	var findings []report.Finding
	add := func(severity report.Severity, format string, args ...any) {
		findings = append(findings, report.Finding{
			Severity: severity,
			Kind:     report.KindSchema,
			Path:     path,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	imageIDs := make(map[int]bool, len(doc.Images))
	for i, img := range doc.Images {
		if imageIDs[img.ID] {
			add(report.SeverityError, "duplicate image id %d", img.ID)
		}
		imageIDs[img.ID] = true
		if img.FileName == "" {
			add(report.SeverityError, "images[%d] (id %d) is missing file_name", i, img.ID)
		}
	}

	annIDs := make(map[int]bool, len(doc.Annotations))
	for _, ann := range doc.Annotations {
		if annIDs[ann.ID] {
			add(report.SeverityError, "duplicate annotation id %d", ann.ID)
		}
		annIDs[ann.ID] = true

		if !imageIDs[ann.ImageID] {
			add(report.SeverityError, "annotation %d references missing image id %d", ann.ID, ann.ImageID)
		}

		if len(ann.Keypoints)%3 != 0 {
			add(report.SeverityError, "annotation %d keypoints length %d is not a multiple of 3", ann.ID, len(ann.Keypoints))
			continue
		}
		for k := 2; k < len(ann.Keypoints); k += 3 {
			v := ann.Keypoints[k]
			if v != VisibilityUnlabeled && v != VisibilityOccluded && v != VisibilityVisible {
				add(report.SeverityError, "annotation %d keypoint %d has visibility %v, want 0, 1, or 2", ann.ID, k/3, v)
			}
		}
	}

	catIDs := make(map[int]bool, len(doc.Categories))
	for _, cat := range doc.Categories {
		if catIDs[cat.ID] {
			add(report.SeverityError, "duplicate category id %d", cat.ID)
		}
		catIDs[cat.ID] = true
		if cat.ID == 0 {
			add(report.SeverityAdvisory, "category id 0: ids are recommended to be 1-indexed")
		}
	}

	return findings
}

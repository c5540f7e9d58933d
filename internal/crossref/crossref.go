// Package crossref reconciles filename-derived facts against label-file
// content. Frame and clip label documents use different image id semantics
// (global video frame index vs clip-local position), so each gets its own
// strongly-typed reconciliation path.
package crossref

import (
	"fmt"

	"github.com/poseinterface/posecheck/internal/dataset"
	"github.com/poseinterface/posecheck/internal/grammar"
	"github.com/poseinterface/posecheck/internal/label"
	"github.com/poseinterface/posecheck/internal/report"
)

// mismatch builds the standard cross-reference finding: the label file, the
// offending image id, and the expected vs actual values.
func mismatch(file string, imageID int, what, expected, actual string) report.Finding {
	return report.Finding{
		Severity: report.SeverityError,
		Kind:     report.KindCrossRef,
		Path:     file,
		Message:  fmt.Sprintf("image id %d: %s: expected %s, actual %s", imageID, what, expected, actual),
	}
}

func crossErr(file string, imageID int, format string, args ...any) report.Finding {
	return report.Finding{
		Severity: report.SeverityError,
		Kind:     report.KindCrossRef,
		Path:     file,
		Message:  fmt.Sprintf("image id %d: ", imageID) + fmt.Sprintf(format, args...),
	}
}

// ReconcileFrames checks a frame label document against the session's frame
// inventory. Every image entry must name an existing frame image of the
// label's camera, and its id must equal the frame index encoded in that
// filename. Frames on disk without a label entry are permitted: Train may
// label a subset.
func ReconcileFrames(rec *dataset.SessionRecord, ref dataset.LabelRef, doc *label.FrameDocument) []report.Finding {
	var findings []report.Finding
	onDisk := rec.FrameNames()

	for _, img := range doc.Images {
		parsed, err := grammar.Parse(img.FileName)
		if err != nil || parsed.Class != grammar.ClassFrameImage {
			findings = append(findings, crossErr(ref.Path, img.ID, "file_name %q is not a valid frame image name", img.FileName))
			continue
		}
		if parsed.SubjectID != rec.SubjectID || parsed.SessionID != rec.SessionID {
			findings = append(findings, mismatch(ref.Path, img.ID, "file_name session identity",
				rec.SubjectID+"/"+rec.SessionID, parsed.SubjectID+"/"+parsed.SessionID))
			continue
		}
		if parsed.CameraID != ref.Parsed.CameraID {
			findings = append(findings, mismatch(ref.Path, img.ID, "file_name camera",
				ref.Parsed.CameraID, parsed.CameraID))
			continue
		}
		if !onDisk[img.FileName] {
			findings = append(findings, crossErr(ref.Path, img.ID, "file_name %q does not exist in the session's frame set", img.FileName))
			continue
		}
		index, err := parsed.FrameIndex()
		if err != nil {
			findings = append(findings, crossErr(ref.Path, img.ID, "frame field %q is not a valid integer", parsed.Frame))
			continue
		}
		if img.ID != index {
			findings = append(findings, mismatch(ref.Path, img.ID, "id must equal the video frame index",
				fmt.Sprintf("%d", index), fmt.Sprintf("%d", img.ID)))
		}
	}

	return findings
}

// ReconcileClip checks a clip label document against its clip video: the
// images array must hold exactly durationFrames entries with contiguous ids
// 0..durationFrames-1 in strictly increasing order, and every file_name must
// be an extension-less frame reference whose frame field equals
// startFrameID + id.
func ReconcileClip(rec *dataset.SessionRecord, clip dataset.ClipFile, doc *label.ClipDocument) []report.Finding {
	if clip.Label == nil {
		return nil
	}
	var findings []report.Finding
	file := clip.Label.Path

	start, err := clip.Parsed.StartIndex()
	if err != nil {
		// Unparseable start was already reported structurally.
		return nil
	}
	dur, err := clip.Parsed.Duration()
	if err != nil {
		return nil
	}
	padWidth := len(clip.Parsed.Start)

	if len(doc.Images) != dur {
		findings = append(findings, report.Finding{
			Severity: report.SeverityError,
			Kind:     report.KindCrossRef,
			Path:     file,
			Message:  fmt.Sprintf("images array has %d entries, want durationFrames %d", len(doc.Images), dur),
		})
	}

	for pos, img := range doc.Images {
		if img.ID != pos {
			findings = append(findings, mismatch(file, img.ID, fmt.Sprintf("id at position %d must be the clip-local index", pos),
				fmt.Sprintf("%d", pos), fmt.Sprintf("%d", img.ID)))
		}

		parsed, err := grammar.ParseClipImageRef(img.FileName)
		if err != nil {
			findings = append(findings, crossErr(file, img.ID, "file_name %q is not a valid clip image reference: %v", img.FileName, err))
			continue
		}
		if parsed.SubjectID != rec.SubjectID || parsed.SessionID != rec.SessionID {
			findings = append(findings, mismatch(file, img.ID, "file_name session identity",
				rec.SubjectID+"/"+rec.SessionID, parsed.SubjectID+"/"+parsed.SessionID))
			continue
		}
		if parsed.CameraID != clip.Parsed.CameraID {
			findings = append(findings, mismatch(file, img.ID, "file_name camera",
				clip.Parsed.CameraID, parsed.CameraID))
			continue
		}
		frame, err := parsed.FrameIndex()
		if err != nil {
			findings = append(findings, crossErr(file, img.ID, "frame field %q is not a valid integer", parsed.Frame))
			continue
		}
		if want := start + img.ID; frame != want {
			findings = append(findings, mismatch(file, img.ID, "file_name frame field must equal start + id",
				grammar.FormatFrameIndex(want, padWidth), parsed.Frame))
		}
	}

	return findings
}

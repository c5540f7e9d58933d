package crossref_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseinterface/posecheck/internal/crossref"
	"github.com/poseinterface/posecheck/internal/dataset"
	"github.com/poseinterface/posecheck/internal/label"
	"github.com/poseinterface/posecheck/internal/testutil"
)

// walkOne builds a dataset with a single Train session and returns its
// record.
func walkOne(t *testing.T, build func(root string)) *dataset.SessionRecord {
	t.Helper()
	root := t.TempDir()
	build(root)
	inv, _, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	require.Len(t, inv.Sessions, 1)
	return inv.Sessions[0]
}

func parseFrameDoc(t *testing.T, path string) *label.FrameDocument {
	t.Helper()
	doc, findings := label.ParseFrameLabels(path)
	require.NotNil(t, doc, "parsing frame label fixture: %v", findings)
	return doc
}

func parseClipDoc(t *testing.T, path string) *label.ClipDocument {
	t.Helper()
	doc, findings := label.ParseClipLabels(path)
	require.NotNil(t, doc, "parsing clip label fixture: %v", findings)
	return doc
}

// Scenario: frames 01000,02300,03500,07200,09800 with label ids exactly
// those five integers and matching file_names must reconcile cleanly.
func TestReconcileFrames_Valid(t *testing.T) {
	sub, ses, cam := "M708149", "20200317", "topdown"
	frames := []string{"01000", "02300", "03500", "07200", "09800"}

	rec := walkOne(t, func(root string) {
		sessionDir := testutil.MakeSession(t, root, "Train", "proj", sub, ses, cam)
		testutil.AddFrames(t, sessionDir, sub, ses, cam, frames)
		testutil.AddFrameLabels(t, sessionDir, sub, ses, cam,
			testutil.FrameLabelJSON(t, sub, ses, cam, frames))
	})

	ref := rec.FrameLabels[0]
	findings := crossref.ReconcileFrames(rec, ref, parseFrameDoc(t, ref.Path))
	assert.Empty(t, findings)
}

func TestReconcileFrames_MismatchedID(t *testing.T) {
	sub, ses, cam := "M708149", "20200317", "topdown"
	frames := []string{"01000", "02300"}

	rec := walkOne(t, func(root string) {
		sessionDir := testutil.MakeSession(t, root, "Train", "proj", sub, ses, cam)
		testutil.AddFrames(t, sessionDir, sub, ses, cam, frames)
		testutil.AddFrameLabels(t, sessionDir, sub, ses, cam,
			testutil.FrameLabelJSON(t, sub, ses, cam, frames))
	})

	doc := parseFrameDoc(t, rec.FrameLabels[0].Path)
	doc.Images[1].ID = 2301 // deliberately off by one

	findings := crossref.ReconcileFrames(rec, rec.FrameLabels[0], doc)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "image id 2301", "finding must reference the offending image id")
}

func TestReconcileFrames_FileNotOnDisk(t *testing.T) {
	sub, ses, cam := "M708149", "20200317", "topdown"

	rec := walkOne(t, func(root string) {
		sessionDir := testutil.MakeSession(t, root, "Train", "proj", sub, ses, cam)
		testutil.AddFrames(t, sessionDir, sub, ses, cam, []string{"01000"})
		// Label mentions a frame that was never extracted.
		testutil.AddFrameLabels(t, sessionDir, sub, ses, cam,
			testutil.FrameLabelJSON(t, sub, ses, cam, []string{"01000", "02000"}))
	})

	ref := rec.FrameLabels[0]
	findings := crossref.ReconcileFrames(rec, ref, parseFrameDoc(t, ref.Path))
	assert.Len(t, findings, 1)
}

func TestReconcileFrames_SubsetIsAllowed(t *testing.T) {
	sub, ses, cam := "M708149", "20200317", "topdown"

	rec := walkOne(t, func(root string) {
		sessionDir := testutil.MakeSession(t, root, "Train", "proj", sub, ses, cam)
		testutil.AddFrames(t, sessionDir, sub, ses, cam, []string{"01000", "02000", "03000"})
		// Only one of three frames is labeled; that is fine.
		testutil.AddFrameLabels(t, sessionDir, sub, ses, cam,
			testutil.FrameLabelJSON(t, sub, ses, cam, []string{"02000"}))
	})

	ref := rec.FrameLabels[0]
	findings := crossref.ReconcileFrames(rec, ref, parseFrameDoc(t, ref.Path))
	assert.Empty(t, findings, "a labeled subset is allowed")
}

func clipSession(t *testing.T, start string, dur int) (*dataset.SessionRecord, *label.ClipDocument) {
	t.Helper()
	sub, ses, cam := "M708149", "20200317", "topdown"
	rec := walkOne(t, func(root string) {
		sessionDir := testutil.MakeSession(t, root, "Train", "proj", sub, ses, cam)
		testutil.AddFrames(t, sessionDir, sub, ses, cam, []string{"01000"})
		testutil.AddFrameLabels(t, sessionDir, sub, ses, cam,
			testutil.FrameLabelJSON(t, sub, ses, cam, []string{"01000"}))
		testutil.AddClip(t, sessionDir, sub, ses, cam, start, dur,
			testutil.ClipLabelJSON(t, sub, ses, cam, start, dur))
	})
	return rec, parseClipDoc(t, rec.Clips[0].Label.Path)
}

// Scenario: clip start-01000_dur-5 with ids 0..4 and frame fields
// 01000..01004 must reconcile cleanly.
func TestReconcileClip_Valid(t *testing.T) {
	rec, doc := clipSession(t, "01000", 5)
	findings := crossref.ReconcileClip(rec, rec.Clips[0], doc)
	assert.Empty(t, findings)
}

func TestReconcileClip_WrongFrameField(t *testing.T) {
	rec, doc := clipSession(t, "01000", 5)
	// Last entry points one frame past the clip.
	doc.Images[4].FileName = "sub-M708149_ses-20200317_cam-topdown_frame-01005"

	findings := crossref.ReconcileClip(rec, rec.Clips[0], doc)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "expected 01004", "expected value must use the start padding width")
}

func TestReconcileClip_WrongImageCount(t *testing.T) {
	rec, doc := clipSession(t, "01000", 5)
	doc.Images = doc.Images[:4]

	findings := crossref.ReconcileClip(rec, rec.Clips[0], doc)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "durationFrames 5", "finding must name the expected count")
}

func TestReconcileClip_NonContiguousIDs(t *testing.T) {
	rec, doc := clipSession(t, "01000", 5)
	doc.Images[2].ID = 7

	findings := crossref.ReconcileClip(rec, rec.Clips[0], doc)

	// id 7 breaks the contiguous sequence and drags the frame-field law
	// with it (frame 01002 no longer equals start + 7).
	assert.Len(t, findings, 2)
}

func TestReconcileClip_FileNameWithExtension(t *testing.T) {
	rec, doc := clipSession(t, "01000", 2)
	doc.Images[0].FileName += ".png"

	findings := crossref.ReconcileClip(rec, rec.Clips[0], doc)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "extension", "finding must mention the forbidden extension")
}

func TestReconcileClip_UnpairedClipIsSkipped(t *testing.T) {
	rec, doc := clipSession(t, "01000", 2)
	clip := rec.Clips[0]
	clip.Label = nil
	assert.Nil(t, crossref.ReconcileClip(rec, clip, doc))
}

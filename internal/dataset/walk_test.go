package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseinterface/posecheck/internal/dataset"
	"github.com/poseinterface/posecheck/internal/report"
	"github.com/poseinterface/posecheck/internal/testutil"
)

func countKind(findings []report.Finding, kind report.Kind) int {
	n := 0
	for _, f := range findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func errorsOnly(findings []report.Finding) []report.Finding {
	var out []report.Finding
	for _, f := range findings {
		if f.Severity == report.SeverityError {
			out = append(out, f)
		}
	}
	return out
}

func TestWalk_ValidDataset(t *testing.T) {
	root := testutil.MakeValidDataset(t)

	inv, findings, err := dataset.Walk(root, dataset.WalkOptions{})
	require.NoError(t, err)
	assert.Empty(t, errorsOnly(findings))
	require.Len(t, inv.Sessions, 2)

	train := inv.Sessions[0]
	if !train.IsTrain() {
		train = inv.Sessions[1]
	}
	assert.Len(t, train.Frames, 5)
	assert.Len(t, train.FrameLabels, 1)
	require.Len(t, train.Clips, 1)
	assert.NotNil(t, train.Clips[0].Label, "train clip must be paired")
}

func TestWalk_MissingSplit(t *testing.T) {
	root := t.TempDir()
	testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{})
	require.NoError(t, err)

	found := false
	for _, f := range findings {
		if f.Kind == report.KindStructure && f.Path == root {
			found = true
		}
	}
	assert.True(t, found, "expected a structural finding for the missing Test split, got %v", findings)
}

func TestWalk_SplitAsPlainFile(t *testing.T) {
	root := t.TempDir()
	testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.WriteFile(t, filepath.Join(root, "Test"), "not a directory")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{})
	require.NoError(t, err)

	// One defect, one finding: the not-a-directory report must not be
	// doubled by a missing-split report.
	require.Len(t, errorsOnly(findings), 1, "findings: %v", findings)
	assert.Equal(t, filepath.Join(root, "Test"), findings[0].Path)
	assert.Contains(t, findings[0].Message, "must be a directory")
}

func TestWalk_SplitsFilter(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1",
		testutil.FrameLabelJSON(t, "M1", "S1", "c1", []string{"00001"}))

	// Only Train requested: the absent Test split must not be flagged.
	inv, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	assert.Empty(t, errorsOnly(findings))
	assert.Len(t, inv.Sessions, 1)
}

func TestWalk_SessionVideoCardinality(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		root := t.TempDir()
		sessionDir := testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
		require.NoError(t, os.Remove(filepath.Join(sessionDir, "sub-M1_ses-S1_cam-c1.mp4")))

		_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
		require.NoError(t, err)

		n := 0
		for _, f := range findings {
			if f.Path == sessionDir && f.Kind == report.KindStructure {
				n++
			}
		}
		assert.Equal(t, 1, n, "exactly one structural finding for the absent video: %v", findings)
	})

	t.Run("duplicated", func(t *testing.T) {
		root := t.TempDir()
		sessionDir := testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
		testutil.WriteFile(t, filepath.Join(sessionDir, "sub-M1_ses-S1_cam-c2.mp4"), "video")

		_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
		require.NoError(t, err)

		n := 0
		for _, f := range findings {
			if f.Path == sessionDir && f.Kind == report.KindStructure {
				n++
			}
		}
		assert.Equal(t, 1, n, "exactly one structural finding for the duplicated video: %v", findings)
	})
}

func TestWalk_TestSplitLabelLeakage(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1", "{}")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_TestSplitClipLabelLeakage(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddClip(t, sessionDir, "M1", "S1", "c1", "00001", 2, "{}")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_MissingFramesFolder(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
	require.NoError(t, os.Remove(filepath.Join(sessionDir, "Frames")))

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(findings, report.KindStructure), "findings: %v", findings)
}

func TestWalk_MixedFramePadding(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001", "002"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1",
		testutil.FrameLabelJSON(t, "M1", "S1", "c1", []string{"00001"}))

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_MissingFrameLabelsInTrain(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_UnpairedClipInTrain(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1",
		testutil.FrameLabelJSON(t, "M1", "S1", "c1", []string{"00001"}))
	testutil.AddClip(t, sessionDir, "M1", "S1", "c1", "00010", 5, "")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_OrphanClipLabel(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1",
		testutil.FrameLabelJSON(t, "M1", "S1", "c1", []string{"00001"}))
	testutil.WriteFile(t,
		filepath.Join(sessionDir, "Clips", "sub-M1_ses-S1_cam-c1_start-00010_dur-5_cliplabels.json"),
		testutil.ClipLabelJSON(t, "M1", "S1", "c1", "00010", 5))

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_BadSessionDirName(t *testing.T) {
	root := t.TempDir()
	testutil.MakeSession(t, root, "Test", "proj", "M1", "S1", "c1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Test", "proj", "session-one"), 0755))

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Test"}})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(findings, report.KindGrammar), "findings: %v", findings)
}

func TestWalk_UnexpectedRootEntry(t *testing.T) {
	root := testutil.MakeValidDataset(t)
	testutil.WriteFile(t, filepath.Join(root, "README.md"), "stray")

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(errorsOnly(findings), report.KindStructure), "findings: %v", findings)
}

func TestWalk_MultiCameraAdvisory(t *testing.T) {
	root := t.TempDir()
	sessionDir := testutil.MakeSession(t, root, "Train", "proj", "M1", "S1", "c1")
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c1", []string{"00001"})
	testutil.AddFrames(t, sessionDir, "M1", "S1", "c2", []string{"00001"})
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c1",
		testutil.FrameLabelJSON(t, "M1", "S1", "c1", []string{"00001"}))
	testutil.AddFrameLabels(t, sessionDir, "M1", "S1", "c2",
		testutil.FrameLabelJSON(t, "M1", "S1", "c2", []string{"00001"}))

	_, findings, err := dataset.Walk(root, dataset.WalkOptions{Splits: []string{"Train"}})
	require.NoError(t, err)

	advisories := 0
	for _, f := range findings {
		if f.Severity == report.SeverityAdvisory {
			advisories++
		}
	}
	assert.Equal(t, 1, advisories, "one multi-camera advisory: %v", findings)
	assert.Empty(t, errorsOnly(findings), "multi-camera sessions must not produce errors")
}

func TestWalk_UnreadableRoot(t *testing.T) {
	_, _, err := dataset.Walk(filepath.Join(t.TempDir(), "does-not-exist"), dataset.WalkOptions{})
	assert.Error(t, err)
}

// Package testutil builds throwaway dataset fixtures for posecheck tests:
// session trees, frame sets, clips, and well-formed COCO label JSON.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MakeSession creates a session directory with its session video and an
// empty Frames folder. Returns the session directory path.
func MakeSession(t *testing.T, root, split, project, sub, ses, cam string) string {
	t.Helper()
	sessionDir := filepath.Join(root, split, project, fmt.Sprintf("sub-%s_ses-%s", sub, ses))
	video := filepath.Join(sessionDir, fmt.Sprintf("sub-%s_ses-%s_cam-%s.mp4", sub, ses, cam))
	WriteFile(t, video, "video")
	if err := os.MkdirAll(filepath.Join(sessionDir, "Frames"), 0755); err != nil {
		t.Fatalf("failed to create Frames folder: %v", err)
	}
	return sessionDir
}

// FrameImageName builds a frame image filename for the session identity.
func FrameImageName(sub, ses, cam, frame string) string {
	return fmt.Sprintf("sub-%s_ses-%s_cam-%s_frame-%s.png", sub, ses, cam, frame)
}

// AddFrames writes one placeholder frame image per raw frame id.
func AddFrames(t *testing.T, sessionDir, sub, ses, cam string, frames []string) {
	t.Helper()
	for _, frame := range frames {
		WriteFile(t, filepath.Join(sessionDir, "Frames", FrameImageName(sub, ses, cam, frame)), "png")
	}
}

// AddFrameLabels writes a frame label file with the given JSON content.
func AddFrameLabels(t *testing.T, sessionDir, sub, ses, cam, content string) string {
	t.Helper()
	path := filepath.Join(sessionDir, "Frames", fmt.Sprintf("sub-%s_ses-%s_cam-%s_framelabels.json", sub, ses, cam))
	WriteFile(t, path, content)
	return path
}

// AddClip writes a clip video and, when labelContent is non-empty, its
// paired clip label file.
func AddClip(t *testing.T, sessionDir, sub, ses, cam, start string, dur int, labelContent string) {
	t.Helper()
	base := fmt.Sprintf("sub-%s_ses-%s_cam-%s_start-%s_dur-%d", sub, ses, cam, start, dur)
	WriteFile(t, filepath.Join(sessionDir, "Clips", base+".mp4"), "video")
	if labelContent != "" {
		WriteFile(t, filepath.Join(sessionDir, "Clips", base+"_cliplabels.json"), labelContent)
	}
}

// FrameLabelJSON builds a valid frame label document: one image entry per
// frame, ids equal to the video frame index, file_name matching the on-disk
// frame image.
func FrameLabelJSON(t *testing.T, sub, ses, cam string, frames []string) string {
	t.Helper()
	images := make([]map[string]any, 0, len(frames))
	annotations := make([]map[string]any, 0, len(frames))
	for i, frame := range frames {
		id, err := strconv.Atoi(frame)
		if err != nil {
			t.Fatalf("bad frame id %q: %v", frame, err)
		}
		images = append(images, map[string]any{
			"id":        id,
			"file_name": FrameImageName(sub, ses, cam, frame),
			"width":     640,
			"height":    480,
		})
		annotations = append(annotations, annotation(i+1, id))
	}
	return marshalLabels(t, images, annotations)
}

// ClipLabelJSON builds a valid clip label document: durationFrames entries
// with clip-local ids and extension-less file_names covering
// start..start+dur-1.
func ClipLabelJSON(t *testing.T, sub, ses, cam, start string, dur int) string {
	t.Helper()
	startIndex, err := strconv.Atoi(start)
	if err != nil {
		t.Fatalf("bad start id %q: %v", start, err)
	}
	images := make([]map[string]any, 0, dur)
	annotations := make([]map[string]any, 0, dur)
	for i := 0; i < dur; i++ {
		frame := fmt.Sprintf("%0*d", len(start), startIndex+i)
		images = append(images, map[string]any{
			"id":        i,
			"file_name": fmt.Sprintf("sub-%s_ses-%s_cam-%s_frame-%s", sub, ses, cam, frame),
			"width":     640,
			"height":    480,
		})
		annotations = append(annotations, annotation(i+1, i))
	}
	return marshalLabels(t, images, annotations)
}

func annotation(id, imageID int) map[string]any {
	return map[string]any{
		"id":            id,
		"image_id":      imageID,
		"category_id":   1,
		"keypoints":     []float64{100, 120, 2, 130, 140, 1, 0, 0, 0},
		"num_keypoints": 3,
	}
}

func marshalLabels(t *testing.T, images, annotations []map[string]any) string {
	t.Helper()
	doc := map[string]any{
		"images":      images,
		"annotations": annotations,
		"categories": []map[string]any{
			{"id": 1, "name": "mouse", "keypoints": []string{"nose", "ear_left", "tail_base"}},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal label document: %v", err)
	}
	return string(data)
}

// MakeValidDataset builds a complete, conformant two-split dataset and
// returns its root. The Train session carries labeled frames and one
// labeled clip; the Test session carries frames and a clip with no labels.
func MakeValidDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	sub, ses, cam := "M708149", "20200317", "topdown"
	frames := []string{"01000", "02300", "03500", "07200", "09800"}

	train := MakeSession(t, root, "Train", "plusmaze", sub, ses, cam)
	AddFrames(t, train, sub, ses, cam, frames)
	AddFrameLabels(t, train, sub, ses, cam, FrameLabelJSON(t, sub, ses, cam, frames))
	AddClip(t, train, sub, ses, cam, "01000", 5, ClipLabelJSON(t, sub, ses, cam, "01000", 5))

	testSub, testSes := "M708150", "20200318"
	test := MakeSession(t, root, "Test", "plusmaze", testSub, testSes, cam)
	AddFrames(t, test, testSub, testSes, cam, []string{"00100", "00250"})
	AddClip(t, test, testSub, testSes, cam, "00100", 3, "")

	return root
}

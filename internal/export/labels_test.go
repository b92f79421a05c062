package export

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/hypernest/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestResult(t)); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLabels_ManyPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	result := buildTestResult(t)
	base := result.Placements[1]
	for i := 0; i < 70; i++ {
		p := base
		p.Instance = i + 1
		result.Placements = append(result.Placements, p)
	}
	result.Sheets[0].PartCount += 70

	if err := ExportLabels(path, result); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLabels_NoPlacements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.pdf")

	result := model.NestingResult{
		Sheets:        []model.SheetUsage{{Slot: 0, Name: "Board", Width: 1000, Height: 500}},
		UnplacedParts: []model.InstanceRef{{PartID: "x", Label: "X"}},
	}
	if err := ExportLabels(path, result); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildTestResult(t))

	if len(labels) != 4 {
		t.Fatalf("expected 4 labels, got %d", len(labels))
	}

	first := labels[0]
	if first.PartLabel != "Side Frame" || first.Instance != 1 {
		t.Errorf("unexpected first label: %+v", first)
	}
	if first.Width != 600 || first.Height != 400 {
		t.Errorf("wrong dimensions: got %.0fx%.0f, want 600x400", first.Width, first.Height)
	}
	if first.X != 10 || first.Y != 10 {
		t.Errorf("wrong position: got (%.0f, %.0f)", first.X, first.Y)
	}
	if first.SheetIndex != 1 || first.SheetName != "Plywood 2440x1220" {
		t.Errorf("wrong sheet: %d %q", first.SheetIndex, first.SheetName)
	}

	// quarter turn swaps the bounding box
	shelf := labels[2]
	if shelf.Angle != 90 {
		t.Errorf("expected rotated shelf, got angle %g", shelf.Angle)
	}
	if math.Abs(shelf.Width-300) > 1e-6 || math.Abs(shelf.Height-400) > 1e-6 {
		t.Errorf("expected 300x400 rotated box, got %.3fx%.3f", shelf.Width, shelf.Height)
	}

	// the empty slot 2 is skipped; numbering follows the slot
	if labels[3].SheetIndex != 3 || labels[3].Instance != 2 {
		t.Errorf("unexpected last label: %+v", labels[3])
	}
}

func TestLabelInfo_JSONRoundTrip(t *testing.T) {
	info := LabelInfo{
		PartID:     "p9",
		PartLabel:  "Test Part",
		Instance:   2,
		SheetIndex: 1,
		SheetName:  "Plywood",
		Angle:      180,
		X:          50,
		Y:          100,
		Width:      300,
		Height:     200,
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded LabelInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded != info {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, info)
	}
}

func TestExportLabels_FileIsWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")
	if err := ExportLabels(path, buildTestResult(t)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
}

package cmd

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/output"
)

// seedCaptures writes captures into images/ of fsys
func seedCaptures(t *testing.T, fsys afero.Fs, names ...string) {
	t.Helper()
	if err := fsys.MkdirAll("images", 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := afero.WriteFile(fsys, "images/"+n, []byte("jpeg:"+n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

var quarterHour = []string{
	"WIN_20230704_09_00_00.jpg",
	"WIN_20230704_09_05_00.jpg",
	"WIN_20230704_09_15_30.jpg",
	"WIN_20230704_09_30_10.jpg",
	"WIN_20230704_09_45_59.jpg",
}

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

func TestSample_CopiesSelectedCaptures(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	out, err := execute(t, "sample", "--color", "never")
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	for _, name := range []string{
		"WIN_20230704_09_00_00.jpg",
		"WIN_20230704_09_15_30.jpg",
		"WIN_20230704_09_30_10.jpg",
		"WIN_20230704_09_45_59.jpg",
	} {
		if !exists(t, fsys, "samples/"+name) {
			t.Errorf("expected samples/%s to be copied", name)
		}
		if !strings.Contains(out, name) {
			t.Errorf("expected output to list %s, got:\n%s", name, out)
		}
	}
	if exists(t, fsys, "samples/WIN_20230704_09_05_00.jpg") {
		t.Error("09:05 capture should not be sampled")
	}
	if exists(t, fsys, "samples/"+copier.ManifestFilename) {
		t.Error("manifest written without --manifest")
	}
	if !strings.Contains(out, "Copied 4 of 4 samples") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
}

func TestSample_CustomDirectoriesAndInterval(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	_, err := execute(t, "sample", "-i", "images", "-o", "hourly", "--interval", "30m", "--tie-break", "first")
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	// 09:00:00 -> 09:30:00 holds 09:30:10 -> 10:00:10 is past the last capture
	for _, name := range []string{"WIN_20230704_09_00_00.jpg", "WIN_20230704_09_30_10.jpg"} {
		if !exists(t, fsys, "hourly/"+name) {
			t.Errorf("expected hourly/%s", name)
		}
	}
	entries, err := afero.ReadDir(fsys, "hourly")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("copied %d files, want 2", len(entries))
	}
}

func TestSample_WritesManifest(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	if _, err := execute(t, "sample", "--manifest"); err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	m, err := copier.LoadManifest(fsys, "samples/"+copier.ManifestFilename)
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	if len(m.Samples) != 4 {
		t.Errorf("manifest lists %d samples, want 4", len(m.Samples))
	}
	if m.Interval != "15m0s" || m.TieBreak != "last" {
		t.Errorf("manifest parameters = %s/%s", m.Interval, m.TieBreak)
	}
	if m.RunID == "" || m.Checksum == "" {
		t.Error("manifest missing run id or checksum")
	}
}

func TestSample_DryRunWritesNothing(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	out, err := execute(t, "sample", "--dry-run", "--manifest")
	if err != nil {
		t.Fatalf("sample --dry-run failed: %v", err)
	}

	if exists(t, fsys, "samples") {
		t.Error("dry run created the output directory")
	}
	if !strings.Contains(out, "[dry-run] would copy 4 of 4 samples") {
		t.Errorf("expected dry-run summary, got:\n%s", out)
	}
}

func TestSample_QuietPrintsNothing(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	out, err := execute(t, "sample", "-q")
	if err != nil {
		t.Fatalf("sample -q failed: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output in quiet mode, got:\n%s", out)
	}
	if !exists(t, fsys, "samples/WIN_20230704_09_00_00.jpg") {
		t.Error("quiet mode must still copy")
	}
}

func TestSample_EmptyInput(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys)

	_, err := execute(t, "sample")
	if err == nil {
		t.Fatal("expected error for empty input directory")
	}
	if code := exitCode(t, err); code != output.ExitInputError {
		t.Errorf("exit code = %d, want %d", code, output.ExitInputError)
	}
}

func TestSample_MissingInputDirectory(t *testing.T) {
	setupCmdTest(t)

	_, err := execute(t, "sample", "-i", "nowhere")
	if code := exitCode(t, err); code != output.ExitInputError {
		t.Errorf("exit code = %d, want %d", code, output.ExitInputError)
	}
}

func TestSample_MalformedFilename(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, "WIN_20230704_09_00_00.jpg", "WIN_20230704_0900.jpg")

	_, err := execute(t, "sample")
	if code := exitCode(t, err); code != output.ExitInputError {
		t.Errorf("exit code = %d, want %d", code, output.ExitInputError)
	}
	if exists(t, fsys, "samples") {
		t.Error("nothing may be copied when a filename is malformed")
	}
}

func TestSample_IntervalTooShort(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)

	_, err := execute(t, "sample", "--interval", "30s")
	if code := exitCode(t, err); code != output.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, output.ExitConfigError)
	}
}

func TestSample_OverwritesExistingSamples(t *testing.T) {
	fsys := setupCmdTest(t)
	seedCaptures(t, fsys, quarterHour...)
	if err := fsys.MkdirAll("samples", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, "samples/WIN_20230704_09_00_00.jpg", []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "sample"); err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	data, err := afero.ReadFile(fsys, "samples/WIN_20230704_09_00_00.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg:WIN_20230704_09_00_00.jpg" {
		t.Errorf("sample not overwritten, got %q", data)
	}
}

func TestPrintCopyTable_KeepsSampleOrder(t *testing.T) {
	setupCmdTest(t)

	at := func(m int) time.Time { return time.Date(2023, time.July, 4, 9, m, 0, 0, time.UTC) }
	missing := &copier.SourceNotFoundError{Path: "images/WIN_20230704_09_15_00.jpg", Err: fs.ErrNotExist}
	res := &copier.Result{
		Files: []copier.FileResult{
			{Filename: "WIN_20230704_09_00_00.jpg", CapturedAt: at(0), Size: 10},
			{Filename: "WIN_20230704_09_15_00.jpg", CapturedAt: at(15), Err: missing},
			{Filename: "WIN_20230704_09_30_00.jpg", CapturedAt: at(30), Size: 10},
		},
	}

	out := new(bytes.Buffer)
	printer := output.NewPrinterWithOptions(output.PrinterOptions{ColorMode: output.ColorNever, Out: out, Err: io.Discard})
	if err := printCopyTable(printer, res); err != nil {
		t.Fatalf("printCopyTable failed: %v", err)
	}

	got := out.String()
	first := strings.Index(got, "09_00_00")
	failed := strings.Index(got, "09_15_00")
	last := strings.Index(got, "09_30_00")
	if first < 0 || failed < 0 || last < 0 || !(first < failed && failed < last) {
		t.Errorf("rows out of sample order:\n%s", got)
	}
	if !strings.Contains(got, "[failed]") {
		t.Errorf("expected failed badge, got:\n%s", got)
	}
}

func TestPrintCopyTable_EmptyResult(t *testing.T) {
	setupCmdTest(t)

	out := new(bytes.Buffer)
	printer := output.NewPrinterWithOptions(output.PrinterOptions{ColorMode: output.ColorNever, Out: out, Err: io.Discard})
	if err := printCopyTable(printer, &copier.Result{}); err != nil {
		t.Fatalf("printCopyTable failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no table for an empty result, got:\n%s", out.String())
	}
}

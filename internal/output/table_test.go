package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	var stdout bytes.Buffer
	p := NewPrinterWithOptions(PrinterOptions{ColorMode: ColorNever, Out: &stdout})

	table := p.NewTable([]string{"FILE", "SIZE"})
	table.AddRow([]string{"WIN_20230704_09_00_07.jpg", "12 kB"})
	table.AddRow([]string{"WIN_20230704_09_15_07.jpg", "13 kB"})

	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if err := table.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"FILE", "WIN_20230704_09_00_07.jpg", "13 kB"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in table output:\n%s", want, out)
		}
	}
}

func TestTable_QuietRendersNothing(t *testing.T) {
	var stdout bytes.Buffer
	p := NewPrinterWithOptions(PrinterOptions{ColorMode: ColorNever, Quiet: true, Out: &stdout})

	table := p.NewTable([]string{"FILE"})
	table.AddRow([]string{"a.jpg"})
	if err := table.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got: %q", stdout.String())
	}
}

package tui

import (
	"strings"
	"testing"

	"sgu-cli/internal/model"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestNormalizePane_PadsAndCuts(t *testing.T) {
	out := normalizePane("short\nthis line is much too long", 10, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 10 {
			t.Fatalf("line %d: expected width 10, got %d (%q)", i, w, ln)
		}
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("expected ellipsis on the cut line, got %q", lines[1])
	}
}

func TestUserRow_FixedWidth(t *testing.T) {
	u := model.User{ID: "1", FullName: "Maximiliana Oyelaran-Whitfield", Email: "max@example.com", PhoneNumber: "+1 555 0100 ext 42"}
	for _, w := range []int{20, 45, 80} {
		row := userRow(u, w)
		if got := xansi.StringWidth(row); got != w {
			t.Fatalf("width %d: row is %d wide: %q", w, got, row)
		}
	}
	if row := userRow(u, 45); !strings.Contains(row, "…") {
		t.Fatalf("expected long name to be truncated, got %q", row)
	}
}

func TestModalBodyWidth_Clamped(t *testing.T) {
	if got := modalBodyWidth(10); got != modalMinWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := modalBodyWidth(500); got != modalMaxWidth {
		t.Fatalf("expected max width, got %d", got)
	}
}

package browser

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
)

func TestFormatElement(t *testing.T) {
	tests := []struct {
		name string
		el   snapElement
		want string
	}{
		{
			name: "link with name",
			el:   snapElement{Ref: 3, Role: "link", Name: "Sign in", Depth: 0},
			want: `[3] link "Sign in"`,
		},
		{
			name: "input with value and state",
			el:   snapElement{Ref: 7, Role: "textbox", Name: "Email", Value: "a@b.c", State: "focused", Depth: 4},
			want: `    [7] textbox "Email" value="a@b.c" (focused)`,
		},
		{
			name: "bare button",
			el:   snapElement{Ref: 1, Role: "button", Depth: 0},
			want: `[1] button`,
		},
		{
			name: "salient heading has no ref",
			el:   snapElement{Role: "h2", Name: "Pricing", Depth: 2, Salient: true},
			want: `  h2 "Pricing"`,
		},
		{
			name: "indent is capped",
			el:   snapElement{Ref: 2, Role: "link", Name: "deep", Depth: 40},
			want: strings.Repeat("  ", 8) + `[2] link "deep"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatElement(tt.el, 0)
			if got != tt.want {
				t.Errorf("formatElement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendElementsTracksRefs(t *testing.T) {
	snap := &Snapshot{refFrame: make(map[int]int)}
	appendElements(snap, []snapElement{
		{Ref: 1, Role: "link", Name: "Home"},
		{Role: "h1", Name: "Welcome", Salient: true},
		{Ref: 2, Role: "button", Name: "Go"},
	}, -1, 0)
	appendElements(snap, []snapElement{
		{Ref: 3, Role: "textbox", Name: "Card number"},
	}, 0, 1)

	if len(snap.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(snap.Lines))
	}
	if !snap.HasRef(1) || !snap.HasRef(2) || !snap.HasRef(3) {
		t.Error("expected refs 1-3 to be tracked")
	}
	if snap.HasRef(4) {
		t.Error("ref 4 should not exist")
	}
	if frame := snap.refFrame[3]; frame != 0 {
		t.Errorf("ref 3 should live in iframe 0, got %d", frame)
	}
	if frame := snap.refFrame[1]; frame != -1 {
		t.Errorf("ref 1 should live in the main document, got %d", frame)
	}
}

func TestOutlineTruncates(t *testing.T) {
	snap := &Snapshot{
		URL:      "https://example.com",
		Title:    "Example",
		refFrame: make(map[int]int),
	}
	for i := 0; i < maxSnapshotLines+50; i++ {
		snap.Lines = append(snap.Lines, fmt.Sprintf("[%d] link \"item %d\"", i+1, i+1))
	}

	out := snap.Outline()
	if !strings.HasPrefix(out, "Page: Example\nURL: https://example.com") {
		t.Errorf("outline missing header:\n%s", out[:80])
	}
	if !strings.HasSuffix(out, "... (outline truncated)") {
		t.Error("expected truncation marker at end of outline")
	}
	if strings.Contains(out, fmt.Sprintf("item %d", maxSnapshotLines+1)) {
		t.Error("lines past the cap should be dropped")
	}
}

func TestOutlineShortPage(t *testing.T) {
	snap := &Snapshot{
		URL:      "https://example.com",
		Title:    "Example",
		Lines:    []string{`[1] link "Home"`},
		refFrame: map[int]int{1: -1},
	}
	out := snap.Outline()
	if strings.Contains(out, "truncated") {
		t.Error("short outline should not carry a truncation marker")
	}
	if !strings.Contains(out, `[1] link "Home"`) {
		t.Errorf("outline missing element line:\n%s", out)
	}
}

func TestKeyByName(t *testing.T) {
	tests := []struct {
		name string
		want input.Key
		ok   bool
	}{
		{"Enter", input.Enter, true},
		{"return", input.Enter, true},
		{"TAB", input.Tab, true},
		{"esc", input.Escape, true},
		{"ArrowDown", input.ArrowDown, true},
		{"pageup", input.PageUp, true},
		{"a", input.Key('a'), true},
		{"NoSuchKey", 0, false},
	}
	for _, tt := range tests {
		got, ok := keyByName(tt.name)
		if ok != tt.ok {
			t.Errorf("keyByName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("keyByName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTruncateTextCollapsesBlankRuns(t *testing.T) {
	in := "First line\n\n\n\n  Second line  \n\nThird"
	got := truncateText(in, 1000)
	want := "First line\n\nSecond line\n\nThird"
	if got != want {
		t.Errorf("truncateText() = %q, want %q", got, want)
	}
}

func TestTruncateTextCutsAtLimit(t *testing.T) {
	in := strings.Repeat("word ", 100)
	got := truncateText(in, 50)
	if !strings.HasSuffix(got, "[...content truncated...]") {
		t.Error("expected truncation marker")
	}
	if len(got) > 50+len("\n\n[...content truncated...]") {
		t.Errorf("truncated text too long: %d chars", len(got))
	}
}

func TestTruncateTextKeepsRuneBoundaries(t *testing.T) {
	// "€" is 3 bytes; a limit that is not a multiple of 3 would land
	// mid-rune without the boundary backoff.
	in := strings.Repeat("€", 100)
	got := truncateText(in, 50)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "[...content truncated...]") {
		t.Error("expected truncation marker")
	}
}

func TestNavigateRequiresScheme(t *testing.T) {
	if got := normalizeURL("example.com"); got != "https://example.com" {
		t.Errorf("normalizeURL(example.com) = %q", got)
	}
	if got := normalizeURL("http://example.com"); got != "http://example.com" {
		t.Errorf("normalizeURL should keep explicit schemes, got %q", got)
	}
}

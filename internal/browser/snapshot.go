package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
)

// refAttr is the attribute snapshots stamp onto elements so later
// actions can find them again without re-walking the DOM.
const refAttr = "data-sb-ref"

// maxSnapshotLines bounds the outline so a dense page cannot flood the
// model's context.
const maxSnapshotLines = 400

// snapElement is what the in-page walker reports per element.
type snapElement struct {
	Ref     int    `json:"ref"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Value   string `json:"value"`
	State   string `json:"state"`
	Depth   int    `json:"depth"`
	Salient bool   `json:"salient"` // headings and landmarks: no ref, shown for orientation
}

// Snapshot is a semantic outline of the current page. Interactive
// elements carry [N] refs that actions accept.
type Snapshot struct {
	URL   string
	Title string
	Lines []string
	// refFrame maps a ref to the iframe index it lives in, -1 for the
	// main document.
	refFrame map[int]int
}

// Outline renders the snapshot for the model.
func (s *Snapshot) Outline() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page: %s\nURL: %s\n\n", s.Title, s.URL)
	lines := s.Lines
	truncated := false
	if len(lines) > maxSnapshotLines {
		lines = lines[:maxSnapshotLines]
		truncated = true
	}
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if truncated {
		sb.WriteString("... (outline truncated)\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HasRef reports whether a ref exists in the snapshot.
func (s *Snapshot) HasRef(ref int) bool {
	_, ok := s.refFrame[ref]
	return ok
}

// walkJS walks the visible DOM, stamps interactive elements with a ref
// attribute, and reports them along with headings for orientation.
// Takes the starting ref number so iframe walks continue the sequence.
const walkJS = `(startRef, attr) => {
	const interactive = new Set(["a", "button", "input", "select", "textarea", "summary"]);
	const headings = new Set(["h1", "h2", "h3", "h4", "h5", "h6"]);
	const results = [];
	let ref = startRef;

	const visible = (el) => {
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 || rect.height > 0;
	};

	const accessibleName = (el) => {
		const aria = el.getAttribute("aria-label");
		if (aria) return aria;
		const labelledBy = el.getAttribute("aria-labelledby");
		if (labelledBy) {
			const target = document.getElementById(labelledBy);
			if (target) return target.innerText.trim();
		}
		if (el.tagName === "INPUT" || el.tagName === "SELECT" || el.tagName === "TEXTAREA") {
			if (el.id) {
				const label = document.querySelector('label[for="' + el.id + '"]');
				if (label) return label.innerText.trim();
			}
			return el.placeholder || el.name || "";
		}
		return (el.innerText || el.alt || el.title || "").trim().slice(0, 120);
	};

	const roleOf = (el) => {
		const explicit = el.getAttribute("role");
		if (explicit) return explicit;
		const tag = el.tagName.toLowerCase();
		if (tag === "a") return "link";
		if (tag === "input") {
			const type = (el.getAttribute("type") || "text").toLowerCase();
			if (type === "checkbox" || type === "radio" || type === "submit" || type === "button") return type;
			return "textbox";
		}
		if (tag === "textarea") return "textbox";
		if (tag === "select") return "combobox";
		if (tag === "summary") return "disclosure";
		return tag;
	};

	const stateOf = (el) => {
		const parts = [];
		if (el.disabled) parts.push("disabled");
		if (el.checked) parts.push("checked");
		if (el.tagName === "DETAILS" && el.open) parts.push("open");
		return parts.join(",");
	};

	const walk = (node, depth) => {
		if (!(node instanceof Element)) return;
		if (node.tagName === "SCRIPT" || node.tagName === "STYLE" || node.tagName === "NOSCRIPT") return;
		if (!visible(node)) return;

		const tag = node.tagName.toLowerCase();
		if (headings.has(tag)) {
			results.push({ref: 0, role: tag, name: (node.innerText || "").trim().slice(0, 120), value: "", state: "", depth: depth, salient: true});
		} else if (interactive.has(tag) || node.getAttribute("role")) {
			ref += 1;
			node.setAttribute(attr, String(ref));
			let value = "";
			if (tag === "input" || tag === "textarea") value = (node.value || "").slice(0, 80);
			if (tag === "select" && node.selectedOptions.length) value = node.selectedOptions[0].text.slice(0, 80);
			results.push({ref: ref, role: roleOf(node), name: accessibleName(node), value: value, state: stateOf(node), depth: depth, salient: false});
		}

		for (const child of node.children) walk(child, depth + 1);
	};

	walk(document.body, 0);
	return {elements: results, nextRef: ref};
}`

type walkResult struct {
	Elements []snapElement `json:"elements"`
	NextRef  int           `json:"nextRef"`
}

// Snapshot captures the current page as a semantic outline. The
// previous snapshot's refs are invalidated.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx)
}

func (s *Session) snapshotLocked(ctx context.Context) (*Snapshot, error) {
	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	snap := &Snapshot{
		URL:      info.URL,
		Title:    info.Title,
		refFrame: make(map[int]int),
	}

	var result walkResult
	if err := evalInto(page, &result, walkJS, 0, refAttr); err != nil {
		return nil, fmt.Errorf("walk page: %w", err)
	}
	appendElements(snap, result.Elements, -1, 0)

	// One level of iframes: enough for embedded logins and consent
	// dialogs, without recursing into ad trees.
	frames, err := page.Elements("iframe")
	if err == nil {
		nextRef := result.NextRef
		for i, frameEl := range frames {
			framePage, err := frameEl.Frame()
			if err != nil {
				continue
			}
			var frameResult walkResult
			if err := evalInto(framePage, &frameResult, walkJS, nextRef, refAttr); err != nil {
				continue
			}
			if len(frameResult.Elements) > 0 {
				snap.Lines = append(snap.Lines, fmt.Sprintf("iframe #%d:", i+1))
				appendElements(snap, frameResult.Elements, i, 1)
			}
			nextRef = frameResult.NextRef
		}
	}

	s.lastSnapshot = snap
	return snap, nil
}

// evalInto runs JS on a page and decodes the result into dst.
func evalInto(page *rod.Page, dst any, js string, args ...any) error {
	obj, err := page.Eval(js, args...)
	if err != nil {
		return err
	}
	raw, err := obj.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// appendElements renders walker output into outline lines and records
// ref locations.
func appendElements(snap *Snapshot, elements []snapElement, frameIndex, extraIndent int) {
	for _, el := range elements {
		line := formatElement(el, extraIndent)
		snap.Lines = append(snap.Lines, line)
		if !el.Salient && el.Ref > 0 {
			snap.refFrame[el.Ref] = frameIndex
		}
	}
}

// formatElement renders one walker entry as an indented outline line.
func formatElement(el snapElement, extraIndent int) string {
	indent := strings.Repeat("  ", min(el.Depth/2+extraIndent, 8))
	if el.Salient {
		return fmt.Sprintf("%s%s %q", indent, el.Role, el.Name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%d] %s", indent, el.Ref, el.Role)
	if el.Name != "" {
		fmt.Fprintf(&sb, " %q", el.Name)
	}
	if el.Value != "" {
		fmt.Fprintf(&sb, " value=%q", el.Value)
	}
	if el.State != "" {
		fmt.Fprintf(&sb, " (%s)", el.State)
	}
	return sb.String()
}

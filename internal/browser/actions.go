package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// maxTextChars caps readable-text extraction.
const maxTextChars = 8000

// normalizeURL assumes https for bare hostnames.
func normalizeURL(url string) string {
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}

// Navigate opens a URL in the shared tab and waits for it to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.tab(ctx)
	if err != nil {
		return err
	}
	url = normalizeURL(url)
	if err := page.Timeout(s.cfg.NavigationTimeout()).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.smartWait(page)
	s.lastSnapshot = nil
	return nil
}

// Back goes one step back in history.
func (s *Session) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.currentPage()
	if err != nil {
		return err
	}
	if err := page.NavigateBack(); err != nil {
		return fmt.Errorf("go back: %w", err)
	}
	s.smartWait(page)
	s.lastSnapshot = nil
	return nil
}

// resolveRef finds the element a snapshot ref points to. Actions fail
// cleanly when the ref never existed or the page has changed under us.
func (s *Session) resolveRef(ref int) (*rod.Element, error) {
	if s.lastSnapshot == nil {
		return nil, fmt.Errorf("no snapshot taken; snapshot the page first")
	}
	frameIndex, ok := s.lastSnapshot.refFrame[ref]
	if !ok {
		return nil, fmt.Errorf("unknown ref [%d]; take a fresh snapshot", ref)
	}

	page, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	selector := fmt.Sprintf(`[%s="%d"]`, refAttr, ref)

	if frameIndex >= 0 {
		frames, err := page.Elements("iframe")
		if err != nil || frameIndex >= len(frames) {
			return nil, fmt.Errorf("iframe for ref [%d] is gone; take a fresh snapshot", ref)
		}
		framePage, err := frames[frameIndex].Frame()
		if err != nil {
			return nil, fmt.Errorf("enter iframe: %w", err)
		}
		page = framePage
	}

	el, err := page.Timeout(3 * time.Second).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("ref [%d] no longer on page; take a fresh snapshot", ref)
	}
	return el, nil
}

// Click clicks the element behind a ref. Elements that refuse a real
// mouse click (covered, off-screen) get a JS click instead.
func (s *Session) Click(ctx context.Context, ref int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if err := el.Timeout(5*time.Second).Click(proto.InputMouseButtonLeft, 1); err != nil {
		if _, jsErr := el.Eval("() => this.click()"); jsErr != nil {
			return fmt.Errorf("click ref [%d]: %w (js fallback: %v)", ref, err, jsErr)
		}
	}
	page, _ := s.currentPage()
	if page != nil {
		s.smartWait(page)
	}
	s.lastSnapshot = nil
	return nil
}

// Fill clears a field and sets its value.
func (s *Session) Fill(ctx context.Context, ref int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("fill ref [%d]: %w", ref, err)
	}
	return nil
}

// Type focuses an element and types into it without clearing, for
// fields with autocomplete behavior.
func (s *Session) Type(ctx context.Context, ref int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focus ref [%d]: %w", ref, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("type into ref [%d]: %w", ref, err)
	}
	return nil
}

// Hover moves the mouse over an element.
func (s *Session) Hover(ctx context.Context, ref int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if err := el.Hover(); err != nil {
		return fmt.Errorf("hover ref [%d]: %w", ref, err)
	}
	return nil
}

// SelectOption picks a dropdown option by its visible text.
func (s *Session) SelectOption(ctx context.Context, ref int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if err := el.Select([]string{option}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("select %q on ref [%d]: %w", option, ref, err)
	}
	return nil
}

// PressKey sends a single key to the page, e.g. "Enter" or "Escape".
func (s *Session) PressKey(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.currentPage()
	if err != nil {
		return err
	}
	key, ok := keyByName(name)
	if !ok {
		return fmt.Errorf("unknown key %q", name)
	}
	if err := page.Keyboard.Press(key); err != nil {
		return fmt.Errorf("press %s: %w", name, err)
	}
	s.smartWait(page)
	s.lastSnapshot = nil
	return nil
}

func keyByName(name string) (input.Key, bool) {
	switch strings.ToLower(name) {
	case "enter", "return":
		return input.Enter, true
	case "tab":
		return input.Tab, true
	case "escape", "esc":
		return input.Escape, true
	case "backspace":
		return input.Backspace, true
	case "arrowdown", "down":
		return input.ArrowDown, true
	case "arrowup", "up":
		return input.ArrowUp, true
	case "arrowleft", "left":
		return input.ArrowLeft, true
	case "arrowright", "right":
		return input.ArrowRight, true
	case "pagedown":
		return input.PageDown, true
	case "pageup":
		return input.PageUp, true
	default:
		if len(name) == 1 {
			return input.Key(name[0]), true
		}
		return 0, false
	}
}

// textJS extracts readable page text with scripts, styles and chrome
// stripped.
const textJS = `() => {
	const clone = document.body.cloneNode(true);
	for (const el of clone.querySelectorAll("script, style, noscript, nav, footer, header")) el.remove();
	return clone.innerText;
}`

// Text returns the page's readable text, truncated to a size a model
// can digest.
func (s *Session) Text(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.currentPage()
	if err != nil {
		return "", err
	}
	var text string
	if err := evalInto(page, &text, textJS); err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return truncateText(text, maxTextChars), nil
}

// truncateText collapses runs of blank lines and cuts at the limit.
func truncateText(text string, limit int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	joined := strings.TrimSpace(strings.Join(out, "\n"))
	if len(joined) > limit {
		return joined[:runeCut(joined, limit)] + "\n\n[...content truncated...]"
	}
	return joined
}

// runeCut backs a byte offset off to the nearest rune boundary so a
// truncation never emits a split UTF-8 sequence.
func runeCut(s string, limit int) int {
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return limit
}

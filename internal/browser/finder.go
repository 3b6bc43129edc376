package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// targetCandidate is one rung of the selector-strategy ladder: a CSS or
// XPath expression derived from a human target description.
type targetCandidate struct {
	Selector string
	XPath    bool
}

// queryOption maps the candidate to the chromedp query mode. XPath and text
// expressions go through the CDP search API; everything else is a plain
// querySelector.
func (c targetCandidate) queryOption() chromedp.QueryOption {
	if c.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// targetCandidates builds the ladder for a description such as "login
// button", "search field" or "Sign In". Strategies, in order: exact visible
// text, placeholder, label association, name/id/aria-label fragments, and
// finally clickable elements containing the text. Mirrors how a person
// would identify the element on the page.
func targetCandidates(target string) []targetCandidate {
	t := sanitizeTarget(target)
	if t == "" {
		return nil
	}

	candidates := []targetCandidate{
		// Exact visible text on any element.
		{Selector: fmt.Sprintf(`//*[normalize-space(text())='%s']`, t), XPath: true},
		// Placeholder text.
		{Selector: fmt.Sprintf(`[placeholder*='%s' i]`, t)},
		// Label pointing at an input, or wrapping one.
		{Selector: fmt.Sprintf(`//input[@id=//label[contains(normalize-space(.), '%s')]/@for]`, t), XPath: true},
		{Selector: fmt.Sprintf(`//label[contains(normalize-space(.), '%s')]//input`, t), XPath: true},
	}

	// Attribute fragments. Multi-word descriptions rarely appear verbatim
	// in name/id attributes, so each word is tried as well.
	for _, fragment := range attributeFragments(t) {
		candidates = append(candidates,
			targetCandidate{Selector: fmt.Sprintf(`input[name*='%s' i]`, fragment)},
			targetCandidate{Selector: fmt.Sprintf(`input[id*='%s' i]`, fragment)},
			targetCandidate{Selector: fmt.Sprintf(`input[aria-label*='%s' i]`, fragment)},
			targetCandidate{Selector: fmt.Sprintf(`textarea[name*='%s' i]`, fragment)},
			targetCandidate{Selector: fmt.Sprintf(`textarea[id*='%s' i]`, fragment)},
			targetCandidate{Selector: fmt.Sprintf(`textarea[aria-label*='%s' i]`, fragment)},
		)
	}

	candidates = append(candidates,
		targetCandidate{Selector: fmt.Sprintf(`//button[contains(., '%s')]`, t), XPath: true},
		targetCandidate{Selector: fmt.Sprintf(`//a[contains(., '%s')]`, t), XPath: true},
	)

	return candidates
}

// attributeFragments returns the description plus its individual words,
// deduplicated, for attribute-contains matching.
func attributeFragments(t string) []string {
	fragments := []string{t}
	words := strings.Fields(t)
	if len(words) <= 1 {
		return fragments
	}
	seen := map[string]bool{t: true}
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			fragments = append(fragments, w)
		}
	}
	return fragments
}

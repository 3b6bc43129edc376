package browser

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
)

// Challenge describes a detected CAPTCHA or verification prompt.
type Challenge struct {
	// Type is "recaptcha", "hcaptcha", "text_captcha" or "unknown".
	Type string
	// Evidence is the marker that triggered detection, for logging.
	Evidence string
}

// challengeTextPatterns are phrases in visible page text that indicate a
// human-verification step.
var challengeTextPatterns = []string{
	"captcha",
	"i am not a robot",
	"verify you are human",
	"security check",
	"prove you're human",
	"human verification",
	"two-factor",
	"verification code",
}

// DetectChallenge scans the current page for CAPTCHA or 2FA markers. A nil
// Challenge means the page looks clean.
func (s *Session) DetectChallenge(ctx context.Context) (*Challenge, error) {
	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()
	readCtx, cancel := context.WithTimeout(opCtx, 10*time.Second)
	defer cancel()

	var pageHTML string
	if err := chromedp.Run(readCtx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return nil, autoerr.Automation(err, "failed to read page for challenge detection")
	}

	challenge := ScanChallengeMarkup(pageHTML)
	if challenge != nil {
		s.logger.Info("Challenge detected",
			zap.String("type", challenge.Type),
			zap.String("evidence", challenge.Evidence))
	}
	return challenge, nil
}

// AwaitChallengeCleared polls until the challenge disappears (solved
// manually) or the wait budget is exhausted. Returns true if the page came
// back clean.
func (s *Session) AwaitChallengeCleared(ctx context.Context, budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
		challenge, err := s.DetectChallenge(ctx)
		if err != nil {
			continue
		}
		if challenge == nil {
			s.logger.Info("Challenge appears to be solved.")
			return true
		}
	}
	s.logger.Warn("Timed out waiting for manual challenge solution.")
	return false
}

// ScanChallengeMarkup inspects raw HTML for challenge markers: known
// widget elements first, then phrases in visible text. Parsing failures are
// treated as no challenge.
func ScanChallengeMarkup(markup string) *Challenge {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	if c := scanChallengeElements(doc); c != nil {
		return c
	}

	visible := strings.ToLower(visibleText(doc))
	for _, pattern := range challengeTextPatterns {
		if strings.Contains(visible, pattern) {
			return &Challenge{Type: "unknown", Evidence: pattern}
		}
	}
	return nil
}

// scanChallengeElements walks the DOM looking for the structural markers of
// common CAPTCHA widgets.
func scanChallengeElements(n *html.Node) *Challenge {
	if n.Type == html.ElementNode {
		if c := classifyChallengeNode(n); c != nil {
			return c
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c := scanChallengeElements(child); c != nil {
			return c
		}
	}
	return nil
}

func classifyChallengeNode(n *html.Node) *Challenge {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = strings.ToLower(a.Val)
	}

	switch n.Data {
	case "iframe":
		if strings.Contains(attrs["src"], "recaptcha") || strings.Contains(attrs["title"], "recaptcha") {
			return &Challenge{Type: "recaptcha", Evidence: "iframe"}
		}
		if strings.Contains(attrs["src"], "hcaptcha") {
			return &Challenge{Type: "hcaptcha", Evidence: "iframe"}
		}
	case "div":
		if strings.Contains(attrs["class"], "g-recaptcha") {
			return &Challenge{Type: "recaptcha", Evidence: "class=g-recaptcha"}
		}
		if strings.Contains(attrs["class"], "h-captcha") {
			return &Challenge{Type: "hcaptcha", Evidence: "class=h-captcha"}
		}
		if _, ok := attrs["data-sitekey"]; ok {
			return &Challenge{Type: "recaptcha", Evidence: "data-sitekey"}
		}
		if strings.Contains(attrs["class"], "captcha") {
			return &Challenge{Type: "text_captcha", Evidence: "class contains captcha"}
		}
	case "img":
		if strings.Contains(attrs["alt"], "captcha") {
			return &Challenge{Type: "text_captcha", Evidence: "img alt"}
		}
	case "input":
		if strings.Contains(attrs["name"], "captcha") {
			return &Challenge{Type: "text_captcha", Evidence: "input name"}
		}
	}
	return nil
}

// visibleText concatenates text nodes, skipping script and style content.
func visibleText(n *html.Node) string {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data + " "
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(visibleText(child))
	}
	return b.String()
}

// Package resolver maps natural-language commands onto the closed set of
// browser action intents. Matching is a fixed table of anchored regular
// expressions tried in declaration order; the first match wins. Resolution
// is a pure parse with no side effects.
package resolver

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
)

// pattern pairs a compiled expression with the builder that turns its
// capture groups into an intent.
type pattern struct {
	re    *regexp.Regexp
	build func(groups []string) Intent
}

// patterns is the command table. Order matters: earlier entries shadow later
// ones when phrasings overlap, so the more specific composite commands
// (login, search) must not share a prefix with the generic ones.
var patterns = []pattern{
	// Navigation: "go to github.com", "navigate to https://example.com/x".
	{
		re: regexp.MustCompile(`(?i)^(?:go to|navigate to|open) (?:the )?(?:website |site |page )?(?:at )?(?:https?://)?([a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(?:/\S*)?)`),
		build: func(g []string) Intent {
			return Navigate{URL: ensureScheme(g[1])}
		},
	},
	// Clicking, quoted target: `click on "Sign In"`.
	{
		re: regexp.MustCompile(`(?i)^click(?: on)? (?:the )?(?:button|link|element)(?: (?:with|that says|containing))? ['"]([^'"]+)['"]`),
		build: func(g []string) Intent {
			return Click{Target: g[1]}
		},
	},
	// Clicking, described target: "click on the login button".
	{
		re: regexp.MustCompile(`(?i)^click(?: on)? (?:the )?([a-zA-Z0-9 ]+?) (?:button|link|element)`),
		build: func(g []string) Intent {
			return Click{Target: strings.TrimSpace(g[1])}
		},
	},
	// Form input, quoted text: `type "hello world" into the search field`.
	{
		re: regexp.MustCompile(`(?i)^(?:type|enter|input|fill in) ['"]([^'"]+)['"] (?:in(?:to)?|on) (?:the )?([a-zA-Z0-9 ]+?)(?: field| input| box)?$`),
		build: func(g []string) Intent {
			return Type{Text: g[1], Field: strings.TrimSpace(g[2])}
		},
	},
	// Form input, bare text: "enter my_username into the username field".
	{
		re: regexp.MustCompile(`(?i)^(?:type|enter|input|fill in) ([a-zA-Z0-9_ ]+?) (?:in(?:to)?|on) (?:the )?([a-zA-Z0-9 ]+?)(?: field| input| box)?$`),
		build: func(g []string) Intent {
			return Type{Text: strings.TrimSpace(g[1]), Field: strings.TrimSpace(g[2])}
		},
	},
	// Waiting for a duration: "wait 5 seconds".
	{
		re: regexp.MustCompile(`(?i)^wait (?:for )?([\d.]+) seconds?`),
		build: func(g []string) Intent {
			seconds, _ := strconv.ParseFloat(g[1], 64)
			return Wait{Duration: time.Duration(seconds * float64(time.Second))}
		},
	},
	// Waiting for an element: "wait for the results to load".
	{
		re: regexp.MustCompile(`(?i)^wait for(?: the)? ([a-zA-Z0-9 ]+?)(?: to appear| to load)?$`),
		build: func(g []string) Intent {
			return WaitFor{Element: strings.TrimSpace(g[1])}
		},
	},
	// Screenshot: "take a screenshot", "screenshot".
	{
		re: regexp.MustCompile(`(?i)^(?:take a |capture |grab a )?screenshot`),
		build: func(g []string) Intent {
			return Screenshot{}
		},
	},
	// Login, optionally with inline credentials.
	{
		re: regexp.MustCompile(`(?i)^log(?:in)?(?: to| into) ([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})(?: with username ['"]([^'"]+)['"] and password ['"]([^'"]+)['"])?`),
		build: func(g []string) Intent {
			return Login{Site: g[1], Username: g[2], Password: g[3]}
		},
	},
	// Search: `search for "python automation" on google.com`.
	{
		re: regexp.MustCompile(`(?i)^search (?:for )?['"]([^'"]+)['"] (?:on|in) ([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
		build: func(g []string) Intent {
			return Search{Query: g[1], Site: g[2]}
		},
	},
	// Submission. Last: "submit"/"send" alone is a weak signal and must not
	// shadow more specific phrasings.
	{
		re: regexp.MustCompile(`(?i)^(?:submit|send)(?: the)?(?: form)?$`),
		build: func(g []string) Intent {
			return Submit{}
		},
	},
}

// Resolver turns command text into intents.
type Resolver struct {
	logger *zap.Logger
}

// New creates a Resolver.
func New(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("resolver")}
}

// Resolve parses the command and applies any option overrides. It returns an
// UnrecognizedCommand error when no pattern matches.
func (r *Resolver) Resolve(command string, options map[string]any) (Intent, error) {
	trimmed := strings.TrimSpace(command)
	r.logger.Debug("Resolving command", zap.String("command", trimmed))

	for _, p := range patterns {
		groups := p.re.FindStringSubmatch(trimmed)
		if groups == nil {
			continue
		}
		intent := applyOptions(p.build(groups), options)
		r.logger.Debug("Command resolved",
			zap.String("kind", string(intent.Kind())))
		return intent, nil
	}

	r.logger.Warn("No pattern matched command", zap.String("command", trimmed))
	return nil, autoerr.UnrecognizedCommand(trimmed)
}

// applyOptions lets request options override the parameters extracted from
// the text, keyed by the historical parameter names.
func applyOptions(intent Intent, options map[string]any) Intent {
	if len(options) == 0 {
		return intent
	}
	switch it := intent.(type) {
	case Navigate:
		if v, ok := stringOption(options, "url"); ok {
			it.URL = ensureScheme(v)
		}
		return it
	case Click:
		if v, ok := stringOption(options, "text"); ok {
			it.Target = v
		}
		return it
	case Type:
		if v, ok := stringOption(options, "text"); ok {
			it.Text = v
		}
		if v, ok := stringOption(options, "field"); ok {
			it.Field = v
		}
		return it
	case Wait:
		if v, ok := floatOption(options, "seconds"); ok {
			it.Duration = time.Duration(v * float64(time.Second))
		}
		return it
	case WaitFor:
		if v, ok := stringOption(options, "element"); ok {
			it.Element = v
		}
		return it
	case Login:
		if v, ok := stringOption(options, "website"); ok {
			it.Site = v
		}
		if v, ok := stringOption(options, "username"); ok {
			it.Username = v
		}
		if v, ok := stringOption(options, "password"); ok {
			it.Password = v
		}
		return it
	case Search:
		if v, ok := stringOption(options, "query"); ok {
			it.Query = v
		}
		if v, ok := stringOption(options, "website"); ok {
			it.Site = v
		}
		return it
	default:
		return intent
	}
}

func stringOption(options map[string]any, key string) (string, bool) {
	v, ok := options[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func floatOption(options map[string]any, key string) (float64, bool) {
	switch v := options[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ensureScheme prefixes https:// when the command omitted the protocol.
func ensureScheme(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

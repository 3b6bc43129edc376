package resolver_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

func newTestResolver(t *testing.T) *resolver.Resolver {
	return resolver.New(zaptest.NewLogger(t))
}

func TestResolve_Phrasings(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    resolver.Intent
	}{
		{
			name:    "navigate bare domain",
			command: "go to github.com",
			want:    resolver.Navigate{URL: "https://github.com"},
		},
		{
			name:    "navigate with scheme and path",
			command: "navigate to https://example.com/docs/page",
			want:    resolver.Navigate{URL: "https://example.com/docs/page"},
		},
		{
			name:    "navigate open phrasing",
			command: "open the website at wikipedia.org",
			want:    resolver.Navigate{URL: "https://wikipedia.org"},
		},
		{
			name:    "click quoted target",
			command: `click on the button "Sign In"`,
			want:    resolver.Click{Target: "Sign In"},
		},
		{
			name:    "click quoted link with connector",
			command: `click the link that says 'Learn more'`,
			want:    resolver.Click{Target: "Learn more"},
		},
		{
			name:    "click described target",
			command: "click on the login button",
			want:    resolver.Click{Target: "login"},
		},
		{
			name:    "click described multiword",
			command: "click the create account link",
			want:    resolver.Click{Target: "create account"},
		},
		{
			name:    "type quoted text",
			command: `type "hello world" into the search field`,
			want:    resolver.Type{Text: "hello world", Field: "search"},
		},
		{
			name:    "type quoted without field suffix",
			command: `enter "golang" in search`,
			want:    resolver.Type{Text: "golang", Field: "search"},
		},
		{
			name:    "type bare text",
			command: "enter my_username into the username field",
			want:    resolver.Type{Text: "my_username", Field: "username"},
		},
		{
			name:    "wait seconds",
			command: "wait 5 seconds",
			want:    resolver.Wait{Duration: 5 * time.Second},
		},
		{
			name:    "wait fractional seconds",
			command: "wait for 1.5 seconds",
			want:    resolver.Wait{Duration: 1500 * time.Millisecond},
		},
		{
			name:    "wait for element",
			command: "wait for the results to load",
			want:    resolver.WaitFor{Element: "results"},
		},
		{
			name:    "screenshot",
			command: "take a screenshot",
			want:    resolver.Screenshot{},
		},
		{
			name:    "screenshot bare",
			command: "screenshot",
			want:    resolver.Screenshot{},
		},
		{
			name:    "login without credentials",
			command: "login to github.com",
			want:    resolver.Login{Site: "github.com"},
		},
		{
			name:    "login with inline credentials",
			command: `login to example.com with username "alice" and password "s3cret"`,
			want:    resolver.Login{Site: "example.com", Username: "alice", Password: "s3cret"},
		},
		{
			name:    "search",
			command: `search for "python automation" on google.com`,
			want:    resolver.Search{Query: "python automation", Site: "google.com"},
		},
		{
			name:    "submit bare",
			command: "submit",
			want:    resolver.Submit{},
		},
		{
			name:    "submit the form",
			command: "submit the form",
			want:    resolver.Submit{},
		},
		{
			name:    "send form",
			command: "send the form",
			want:    resolver.Submit{},
		},
		{
			name:    "leading and trailing whitespace",
			command: "  go to github.com  ",
			want:    resolver.Navigate{URL: "https://github.com"},
		},
		{
			name:    "case insensitive",
			command: "GO TO GITHUB.COM",
			want:    resolver.Navigate{URL: "https://GITHUB.COM"},
		},
	}

	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.command, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.command, diff)
			}
		})
	}
}

func TestResolve_Unrecognized(t *testing.T) {
	r := newTestResolver(t)

	for _, command := range []string{
		"",
		"do something undefined",
		"make me a sandwich",
		"clickety clack",
	} {
		_, err := r.Resolve(command, nil)
		require.Error(t, err, "command %q", command)
		assert.Equal(t, autoerr.KindUnrecognizedCommand, autoerr.KindOf(err))
	}
}

func TestResolve_SubmitDoesNotShadowSearch(t *testing.T) {
	// "send" and "submit" are weak signals; they must only match when the
	// command is nothing but a submission.
	r := newTestResolver(t)

	got, err := r.Resolve(`search for "cats" on reddit.com`, nil)
	require.NoError(t, err)
	assert.Equal(t, resolver.KindSearch, got.Kind())

	_, err = r.Resolve("send a message to bob", nil)
	require.Error(t, err)
	assert.Equal(t, autoerr.KindUnrecognizedCommand, autoerr.KindOf(err))
}

func TestResolve_OptionOverrides(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		command string
		options map[string]any
		want    resolver.Intent
	}{
		{
			name:    "url override",
			command: "go to example.com",
			options: map[string]any{"url": "other.org"},
			want:    resolver.Navigate{URL: "https://other.org"},
		},
		{
			name:    "click text override",
			command: "click on the login button",
			options: map[string]any{"text": "Sign In"},
			want:    resolver.Click{Target: "Sign In"},
		},
		{
			name:    "type text and field overrides",
			command: `type "x" into the y field`,
			options: map[string]any{"text": "hello", "field": "search"},
			want:    resolver.Type{Text: "hello", Field: "search"},
		},
		{
			name:    "wait seconds as float",
			command: "wait 1 second",
			options: map[string]any{"seconds": 2.5},
			want:    resolver.Wait{Duration: 2500 * time.Millisecond},
		},
		{
			name:    "wait seconds as int",
			command: "wait 1 second",
			options: map[string]any{"seconds": 3},
			want:    resolver.Wait{Duration: 3 * time.Second},
		},
		{
			name:    "wait seconds as string",
			command: "wait 1 second",
			options: map[string]any{"seconds": "4"},
			want:    resolver.Wait{Duration: 4 * time.Second},
		},
		{
			name:    "login credential injection",
			command: "login to github.com",
			options: map[string]any{"username": "alice", "password": "s3cret"},
			want:    resolver.Login{Site: "github.com", Username: "alice", Password: "s3cret"},
		},
		{
			name:    "search query and site overrides",
			command: `search for "a" on b.com`,
			options: map[string]any{"query": "golang", "website": "reddit.com"},
			want:    resolver.Search{Query: "golang", Site: "reddit.com"},
		},
		{
			name:    "empty string option ignored",
			command: "go to example.com",
			options: map[string]any{"url": ""},
			want:    resolver.Navigate{URL: "https://example.com"},
		},
		{
			name:    "unknown option keys ignored",
			command: "go to example.com",
			options: map[string]any{"bogus": "value"},
			want:    resolver.Navigate{URL: "https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.command, tt.options)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q, %v) mismatch (-want +got):\n%s", tt.command, tt.options, diff)
			}
		})
	}
}

func TestIntentKinds(t *testing.T) {
	tests := []struct {
		intent resolver.Intent
		kind   resolver.Kind
	}{
		{resolver.Navigate{}, resolver.KindNavigate},
		{resolver.Click{}, resolver.KindClick},
		{resolver.Type{}, resolver.KindType},
		{resolver.Submit{}, resolver.KindSubmit},
		{resolver.Wait{}, resolver.KindWait},
		{resolver.WaitFor{}, resolver.KindWaitFor},
		{resolver.Screenshot{}, resolver.KindScreenshot},
		{resolver.Login{}, resolver.KindLogin},
		{resolver.Search{}, resolver.KindSearch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.intent.Kind())
	}
}

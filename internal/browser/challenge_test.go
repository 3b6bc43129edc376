package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanChallengeMarkup_Recaptcha(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{
			name:   "iframe src",
			markup: `<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`,
		},
		{
			name:   "iframe title",
			markup: `<html><body><iframe title="reCAPTCHA challenge"></iframe></body></html>`,
		},
		{
			name:   "widget class",
			markup: `<html><body><div class="g-recaptcha" data-sitekey="abc"></div></body></html>`,
		},
		{
			name:   "data-sitekey only",
			markup: `<html><body><div data-sitekey="abc"></div></body></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ScanChallengeMarkup(tt.markup)
			require.NotNil(t, c)
			assert.Equal(t, "recaptcha", c.Type)
		})
	}
}

func TestScanChallengeMarkup_Hcaptcha(t *testing.T) {
	c := ScanChallengeMarkup(`<html><body><div class="h-captcha"></div></body></html>`)
	require.NotNil(t, c)
	assert.Equal(t, "hcaptcha", c.Type)

	c = ScanChallengeMarkup(`<html><body><iframe src="https://hcaptcha.com/frame"></iframe></body></html>`)
	require.NotNil(t, c)
	assert.Equal(t, "hcaptcha", c.Type)
}

func TestScanChallengeMarkup_TextCaptcha(t *testing.T) {
	c := ScanChallengeMarkup(`<html><body><img alt="captcha image" src="/c.png"><input name="captcha_answer"></body></html>`)
	require.NotNil(t, c)
	assert.Equal(t, "text_captcha", c.Type)
}

func TestScanChallengeMarkup_VisibleTextPhrases(t *testing.T) {
	for _, phrase := range []string{
		"Please verify you are human before continuing.",
		"Enter the verification code we sent to your phone.",
		"Security check: confirm your identity.",
		"This site uses two-factor authentication.",
	} {
		c := ScanChallengeMarkup("<html><body><p>" + phrase + "</p></body></html>")
		require.NotNil(t, c, "phrase %q", phrase)
		assert.Equal(t, "unknown", c.Type)
	}
}

func TestScanChallengeMarkup_IgnoresScriptContent(t *testing.T) {
	// Challenge vocabulary inside scripts must not trigger detection; half
	// the web ships a bundled "captcha" string somewhere in its JS.
	markup := `<html><body>
		<script>var config = {captcha: false, mode: "security check"};</script>
		<style>.captcha-hidden { display: none; }</style>
		<p>Welcome back!</p>
	</body></html>`
	assert.Nil(t, ScanChallengeMarkup(markup))
}

func TestScanChallengeMarkup_CleanPage(t *testing.T) {
	assert.Nil(t, ScanChallengeMarkup(`<html><body><h1>Results</h1><a href="/next">Next</a></body></html>`))
	assert.Nil(t, ScanChallengeMarkup(""))
}

func TestScanChallengeMarkup_ElementBeatsText(t *testing.T) {
	// Structural markers classify more precisely than text phrases.
	markup := `<html><body>
		<p>Please solve the captcha below.</p>
		<div class="g-recaptcha"></div>
	</body></html>`
	c := ScanChallengeMarkup(markup)
	require.NotNil(t, c)
	assert.Equal(t, "recaptcha", c.Type)
}

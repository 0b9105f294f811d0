package auth

import (
	"strings"
	"time"

	"xscraper/pkg/browser"
)

// Locator candidates for the login flow and for the signals that betray an
// authenticated session. X.com renders several variants of its login form,
// so every target carries fallbacks ordered by specificity.
var (
	// UsernameField matches the identifier input on the first login step.
	UsernameField = browser.CandidateList{
		Target: "username field",
		Candidates: []browser.Candidate{
			{Selector: `input[autocomplete="username"]`},
			{Selector: `input[name="text"]`},
			{Selector: `input[data-testid="ocfEnterTextTextInput"]`},
		},
	}

	// NextButton advances the login flow to the next step.
	NextButton = browser.CandidateList{
		Target: "next button",
		Candidates: []browser.Candidate{
			{Selector: `div[role="button"]`, Text: `^Next$`},
			{Selector: `button`, Text: `^Next$`},
		},
	}

	// PasswordField matches the password input.
	PasswordField = browser.CandidateList{
		Target: "password field",
		Candidates: []browser.Candidate{
			{Selector: `input[name="password"]`},
			{Selector: `input[type="password"]`},
			{Selector: `input[autocomplete="current-password"]`},
		},
	}

	// LoginButton submits the credentials.
	LoginButton = browser.CandidateList{
		Target: "login button",
		Candidates: []browser.Candidate{
			{Selector: `[data-testid="LoginForm_Login_Button"]`},
			{Selector: `div[role="button"]`, Text: `^Log in$`},
			{Selector: `button[type="submit"]`},
		},
	}

	// ChallengeField appears when x.com interposes an extra verification
	// step between username and password.
	ChallengeField = browser.CandidateList{
		Target: "challenge field",
		Candidates: []browser.Candidate{
			{Selector: `input[data-testid="ocfEnterTextTextInput"]`},
		},
	}

	// AccountSwitcher only renders for logged-in sessions.
	AccountSwitcher = browser.CandidateList{
		Target: "account switcher",
		Candidates: []browser.Candidate{
			{Selector: `[data-testid="SideNav_AccountSwitcher_Button"]`},
		},
	}

	// PrimaryNav is the main navigation rail of the logged-in shell.
	PrimaryNav = browser.CandidateList{
		Target: "primary navigation",
		Candidates: []browser.Candidate{
			{Selector: `nav[aria-label="Primary"]`},
			{Selector: `[data-testid="primaryColumn"]`},
		},
	}
)

// Probe is the minimal page surface needed to judge session liveness.
type Probe interface {
	URL() string
	Present(list browser.CandidateList, wait time.Duration) bool
}

// SessionLive reports whether the page belongs to an authenticated
// session. Any one positive signal is enough: the home URL, the account
// switcher, the primary navigation rail, or a URL clear of login flow
// markers.
func SessionLive(p Probe, wait time.Duration) bool {
	url := p.URL()
	if strings.Contains(url, "/home") {
		return true
	}
	if p.Present(AccountSwitcher, wait) {
		return true
	}
	if p.Present(PrimaryNav, wait) {
		return true
	}
	if url != "" && !strings.Contains(url, "login") && !strings.Contains(url, "/i/flow") {
		return true
	}
	return false
}

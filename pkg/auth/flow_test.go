package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/browser"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/pacing"
	"xscraper/pkg/session"
)

// fakeSurface scripts the login page: which targets exist, what URL the
// page reports, and what every interaction did.
type fakeSurface struct {
	url       string
	available map[string]bool
	openErr   error

	opened []string
	filled map[string]string
	clicks []string

	// onOpen lets a test change the page state when a URL is opened,
	// mimicking the redirect after a successful submit.
	onOpen func(url string)

	cookies    []session.Cookie
	cookiesErr error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		url: "https://x.com/i/flow/login",
		available: map[string]bool{
			UsernameField.Target: true,
			NextButton.Target:    true,
			PasswordField.Target: true,
			LoginButton.Target:   true,
		},
		filled: make(map[string]string),
		cookies: []session.Cookie{
			{Name: "auth_token", Value: "tok", Domain: ".x.com", Secure: true},
		},
	}
}

func (s *fakeSurface) Open(url string) error {
	s.opened = append(s.opened, url)
	if s.openErr != nil {
		return s.openErr
	}
	s.url = url
	if s.onOpen != nil {
		s.onOpen(url)
	}
	return nil
}

func (s *fakeSurface) URL() string { return s.url }

func (s *fakeSurface) Present(list browser.CandidateList, wait time.Duration) bool {
	return s.available[list.Target]
}

func (s *fakeSurface) Fill(list browser.CandidateList, value string) (int, bool) {
	if !s.available[list.Target] {
		return 0, false
	}
	s.filled[list.Target] = value
	return 0, true
}

func (s *fakeSurface) Click(list browser.CandidateList) (int, bool) {
	if !s.available[list.Target] {
		return 0, false
	}
	s.clicks = append(s.clicks, list.Target)
	return 0, true
}

func (s *fakeSurface) Pause(action pacing.Action) {}

func (s *fakeSurface) Cookies() ([]session.Cookie, error) {
	return s.cookies, s.cookiesErr
}

func testFlowConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Browser.SignalWait = time.Millisecond
	cfg.Browser.ChallengeWait = time.Millisecond
	return cfg
}

func testAccount() *Account {
	return &Account{Username: "tester", Password: "hunter2"}
}

func TestLoginHappyPath(t *testing.T) {
	surface := newFakeSurface()
	// Login click lands the session on the home timeline.
	surface.onOpen = func(url string) {}
	surface.available[AccountSwitcher.Target] = true

	flow := NewFlow(surface, testFlowConfig(), nil, nil, logger.NewTestLogger())
	require.NoError(t, flow.Login(testAccount()))

	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Equal(t, []State{
		StateStart,
		StateNavigatedToLogin,
		StateUsernameEntered,
		StateChallengeCheck,
		StateNoChallenge,
		StatePasswordEntered,
		StateSubmitted,
		StateVerifying,
		StateAuthenticated,
	}, flow.History())

	assert.Equal(t, "tester", surface.filled[UsernameField.Target])
	assert.Equal(t, "hunter2", surface.filled[PasswordField.Target])
	assert.Equal(t, []string{NextButton.Target, LoginButton.Target}, surface.clicks)
}

func TestLoginWithChallenge(t *testing.T) {
	surface := newFakeSurface()
	surface.available[ChallengeField.Target] = true
	surface.available[AccountSwitcher.Target] = true

	resolver := func(prompt string) (string, error) {
		return "tester@example.com", nil
	}

	flow := NewFlow(surface, testFlowConfig(), nil, resolver, logger.NewTestLogger())
	require.NoError(t, flow.Login(testAccount()))

	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Contains(t, flow.History(), StateChallengeResolved)
	assert.NotContains(t, flow.History(), StateNoChallenge)
	assert.Equal(t, "tester@example.com", surface.filled[ChallengeField.Target])
	// Next is clicked once for the username step and once for the challenge.
	assert.Equal(t, []string{NextButton.Target, NextButton.Target, LoginButton.Target}, surface.clicks)
}

func TestLoginChallengeWithoutResolver(t *testing.T) {
	surface := newFakeSurface()
	surface.available[ChallengeField.Target] = true

	flow := NewFlow(surface, testFlowConfig(), nil, nil, logger.NewTestLogger())
	err := flow.Login(testAccount())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeChallenge))
	assert.Equal(t, StateFailed, flow.State())
}

func TestLoginChallengeResolverFails(t *testing.T) {
	surface := newFakeSurface()
	surface.available[ChallengeField.Target] = true

	resolver := func(prompt string) (string, error) {
		return "", errors.New("operator walked away")
	}

	flow := NewFlow(surface, testFlowConfig(), nil, resolver, logger.NewTestLogger())
	err := flow.Login(testAccount())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeChallenge))
	assert.Equal(t, StateFailed, flow.State())
}

func TestLoginMissingUsernameField(t *testing.T) {
	surface := newFakeSurface()
	surface.available[UsernameField.Target] = false

	flow := NewFlow(surface, testFlowConfig(), nil, nil, logger.NewTestLogger())
	err := flow.Login(testAccount())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
	assert.Equal(t, StateFailed, flow.State())
}

func TestLoginVerifyConfirmsAgainstHome(t *testing.T) {
	surface := newFakeSurface()
	// No signals on the post-submit page; the confirmatory navigation to
	// home makes the account switcher appear.
	surface.url = "https://x.com/i/flow/login"
	surface.onOpen = func(url string) {
		if url == "https://x.com/home" {
			surface.available[AccountSwitcher.Target] = true
		}
	}

	flow := NewFlow(surface, testFlowConfig(), nil, nil, logger.NewTestLogger())
	require.NoError(t, flow.Login(testAccount()))

	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Contains(t, surface.opened, "https://x.com/home")
}

func TestLoginFailsWithoutAnySignal(t *testing.T) {
	surface := newFakeSurface()
	// Even after the confirmatory navigation the page keeps looking like
	// the login flow.
	surface.onOpen = func(url string) {
		surface.url = "https://x.com/i/flow/login"
	}

	flow := NewFlow(surface, testFlowConfig(), nil, nil, logger.NewTestLogger())
	err := flow.Login(testAccount())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
	assert.Equal(t, StateFailed, flow.State())
	assert.Contains(t, surface.opened, "https://x.com/home")
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	flow := NewFlow(newFakeSurface(), testFlowConfig(), nil, nil, logger.NewTestLogger())

	assert.Error(t, flow.Login(nil))
	assert.Error(t, flow.Login(&Account{Username: "tester"}))
	assert.Error(t, flow.Login(&Account{Password: "hunter2"}))
}

func TestLoginPersistsSession(t *testing.T) {
	surface := newFakeSurface()
	surface.available[AccountSwitcher.Target] = true

	store := session.NewStore(t.TempDir()+"/cookies.json", logger.NewTestLogger())
	flow := NewFlow(surface, testFlowConfig(), store, nil, logger.NewTestLogger())
	require.NoError(t, flow.Login(testAccount()))

	loaded, ok := store.Load()
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, "auth_token", loaded[0].Name)
}

func TestLoginCookieCaptureFailure(t *testing.T) {
	surface := newFakeSurface()
	surface.available[AccountSwitcher.Target] = true
	surface.cookiesErr = errors.New("target closed")

	store := session.NewStore(t.TempDir()+"/cookies.json", logger.NewTestLogger())
	flow := NewFlow(surface, testFlowConfig(), store, nil, logger.NewTestLogger())

	err := flow.Login(testAccount())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestSessionLive(t *testing.T) {
	t.Run("home url", func(t *testing.T) {
		surface := newFakeSurface()
		surface.url = "https://x.com/home"
		assert.True(t, SessionLive(surface, time.Millisecond))
	})

	t.Run("account switcher", func(t *testing.T) {
		surface := newFakeSurface()
		surface.available[AccountSwitcher.Target] = true
		assert.True(t, SessionLive(surface, time.Millisecond))
	})

	t.Run("primary nav", func(t *testing.T) {
		surface := newFakeSurface()
		surface.available[PrimaryNav.Target] = true
		assert.True(t, SessionLive(surface, time.Millisecond))
	})

	t.Run("url clear of login markers", func(t *testing.T) {
		surface := newFakeSurface()
		surface.url = "https://x.com/search?q=golang"
		assert.True(t, SessionLive(surface, time.Millisecond))
	})

	t.Run("login flow url with no signals", func(t *testing.T) {
		surface := newFakeSurface()
		surface.url = "https://x.com/i/flow/login"
		assert.False(t, SessionLive(surface, time.Millisecond))
	})

	t.Run("login page url", func(t *testing.T) {
		surface := newFakeSurface()
		surface.url = "https://x.com/login"
		assert.False(t, SessionLive(surface, time.Millisecond))
	})
}

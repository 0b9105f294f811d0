// Package auth logs an account into x.com through the interactive login
// flow and persists the resulting session, with credentials sourced from
// the system keychain, an encrypted file or the environment.
package auth

import (
	"time"

	"xscraper/pkg/browser"
	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/pacing"
	"xscraper/pkg/session"
)

// State is one step of the login flow.
type State string

const (
	StateStart             State = "START"
	StateNavigatedToLogin  State = "NAVIGATED_TO_LOGIN"
	StateUsernameEntered   State = "USERNAME_ENTERED"
	StateChallengeCheck    State = "CHALLENGE_CHECK"
	StateChallengeResolved State = "CHALLENGE_RESOLVED"
	StateNoChallenge       State = "NO_CHALLENGE"
	StatePasswordEntered   State = "PASSWORD_ENTERED"
	StateSubmitted         State = "SUBMITTED"
	StateVerifying         State = "VERIFYING"
	StateAuthenticated     State = "AUTHENTICATED"
	StateFailed            State = "FAILED"
)

// Surface is the page surface the login flow drives.
type Surface interface {
	Open(url string) error
	URL() string
	Present(list browser.CandidateList, wait time.Duration) bool
	Fill(list browser.CandidateList, value string) (int, bool)
	Click(list browser.CandidateList) (int, bool)
	Pause(action pacing.Action)
	Cookies() ([]session.Cookie, error)
}

// ChallengeResolver supplies the answer to an interposed verification
// prompt, typically by asking the operator. A nil resolver means
// challenges cannot be handled and fail the login.
type ChallengeResolver func(prompt string) (string, error)

// Flow walks the interactive login flow as a state machine.
type Flow struct {
	surface Surface
	cfg     *config.Config
	store   *session.Store
	resolve ChallengeResolver
	log     logger.Logger

	state   State
	history []State
}

// NewFlow creates a login flow. The session store may be nil when the
// caller does not want cookies persisted.
func NewFlow(surface Surface, cfg *config.Config, store *session.Store, resolve ChallengeResolver, log logger.Logger) *Flow {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Flow{
		surface: surface,
		cfg:     cfg,
		store:   store,
		resolve: resolve,
		log:     log,
		state:   StateStart,
		history: []State{StateStart},
	}
}

// State returns the flow's current state.
func (f *Flow) State() State {
	return f.state
}

// History returns every state the flow passed through, in order.
func (f *Flow) History() []State {
	out := make([]State, len(f.history))
	copy(out, f.history)
	return out
}

func (f *Flow) transition(s State) {
	f.state = s
	f.history = append(f.history, s)
	f.log.WithField("state", string(s)).Debug("login flow transition")
}

// Login authenticates the account and, on success, captures and persists
// the session cookies.
func (f *Flow) Login(account *Account) error {
	if account == nil || account.Username == "" || account.Password == "" {
		return errs.New(errs.ErrorTypeAuth, "username and password are required")
	}

	f.log.WithField("username", account.Username).Info("starting login flow")

	if err := f.surface.Open(f.cfg.X.LoginURL); err != nil {
		f.transition(StateFailed)
		return errs.Wrap(errs.ErrorTypeAuth, "failed to open login page", err)
	}
	f.transition(StateNavigatedToLogin)

	if _, ok := f.surface.Fill(UsernameField, account.Username); !ok {
		f.transition(StateFailed)
		return errs.New(errs.ErrorTypeAuth, "username field not found on login page")
	}
	if _, ok := f.surface.Click(NextButton); !ok {
		f.transition(StateFailed)
		return errs.New(errs.ErrorTypeAuth, "next button not found after entering username")
	}
	f.transition(StateUsernameEntered)

	f.transition(StateChallengeCheck)
	if f.surface.Present(ChallengeField, f.cfg.Browser.ChallengeWait) {
		if err := f.resolveChallenge(); err != nil {
			f.transition(StateFailed)
			return err
		}
		f.transition(StateChallengeResolved)
	} else {
		f.transition(StateNoChallenge)
	}

	if _, ok := f.surface.Fill(PasswordField, account.Password); !ok {
		f.transition(StateFailed)
		return errs.New(errs.ErrorTypeAuth, "password field not found")
	}
	f.transition(StatePasswordEntered)

	if _, ok := f.surface.Click(LoginButton); !ok {
		f.transition(StateFailed)
		return errs.New(errs.ErrorTypeAuth, "login button not found")
	}
	f.transition(StateSubmitted)
	f.surface.Pause(pacing.ActionLogin)

	f.transition(StateVerifying)
	if !f.verify() {
		f.transition(StateFailed)
		return errs.New(errs.ErrorTypeAuth, "login not confirmed, no authenticated session signals found")
	}
	f.transition(StateAuthenticated)
	f.log.WithField("username", account.Username).Info("login confirmed")

	return f.persistSession()
}

// resolveChallenge answers the interposed verification prompt.
func (f *Flow) resolveChallenge() error {
	f.log.Warn("verification challenge interposed before password step")

	if f.resolve == nil {
		return errs.New(errs.ErrorTypeChallenge, "verification challenge presented but no resolver is available")
	}

	answer, err := f.resolve("X.com asks for an additional verification (email, phone or username)")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeChallenge, "challenge resolver failed", err)
	}

	if _, ok := f.surface.Fill(ChallengeField, answer); !ok {
		return errs.New(errs.ErrorTypeChallenge, "challenge field disappeared before the answer could be entered")
	}
	if _, ok := f.surface.Click(NextButton); !ok {
		return errs.New(errs.ErrorTypeChallenge, "next button not found after answering the challenge")
	}
	return nil
}

// verify looks for authenticated session signals, confirming with a
// navigation to the home timeline before giving up.
func (f *Flow) verify() bool {
	if SessionLive(f.surface, f.cfg.Browser.SignalWait) {
		return true
	}

	f.log.Debug("no session signals yet, confirming against the home timeline")
	if err := f.surface.Open(f.cfg.X.HomeURL); err != nil {
		f.log.WithError(err).Warn("confirmatory navigation to home failed")
		return false
	}
	f.surface.Pause(pacing.ActionVerify)

	return SessionLive(f.surface, f.cfg.Browser.SignalWait)
}

// persistSession captures the browser cookies and writes them to disk.
func (f *Flow) persistSession() error {
	if f.store == nil {
		return nil
	}

	cookies, err := f.surface.Cookies()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, "failed to capture session cookies", err)
	}
	if err := f.store.Save(cookies); err != nil {
		return errs.Wrap(errs.ErrorTypeAuth, "failed to persist session cookies", err)
	}
	return nil
}

// Package pacing centralizes the settle delays the scraper inserts after
// actions that trigger asynchronous rendering. Call sites name the kind of
// action they just performed instead of hardcoding a sleep, so the waits can
// be tuned (or zeroed in tests) in one place.
package pacing

import (
	"math/rand"
	"time"

	"xscraper/pkg/config"
)

// Action identifies the kind of action that was just performed.
type Action string

const (
	// ActionNavigate: a page navigation finished rendering its shell.
	ActionNavigate Action = "navigate"
	// ActionScroll: lazy-loaded content is rendering after a scroll gesture.
	ActionScroll Action = "scroll"
	// ActionFieldFilled: a form field was filled.
	ActionFieldFilled Action = "field_filled"
	// ActionSubmit: a form step was submitted (Next, challenge).
	ActionSubmit Action = "submit"
	// ActionLogin: the final login control was clicked.
	ActionLogin Action = "login"
	// ActionVerify: about to evaluate authentication signals.
	ActionVerify Action = "verify"
	// ActionSearch: the search results page was opened.
	ActionSearch Action = "search"
)

// Policy maps an action kind to a wait duration.
type Policy interface {
	// Duration returns the settle delay for an action kind.
	Duration(a Action) time.Duration
	// Wait blocks for the action's settle delay.
	Wait(a Action)
}

// FixedPolicy waits a fixed duration per action kind, with optional jitter.
type FixedPolicy struct {
	Delays map[Action]time.Duration
	// JitterFactor randomizes each wait by up to ±(delay * factor).
	JitterFactor float64
}

// Default returns the settle delays the target site has proven to need.
func Default() *FixedPolicy {
	return &FixedPolicy{
		Delays: map[Action]time.Duration{
			ActionNavigate:    3 * time.Second,
			ActionScroll:      4 * time.Second,
			ActionFieldFilled: 1 * time.Second,
			ActionSubmit:      4 * time.Second,
			ActionLogin:       8 * time.Second,
			ActionVerify:      5 * time.Second,
			ActionSearch:      5 * time.Second,
		},
	}
}

// FromConfig builds a policy from the configured settle delays.
func FromConfig(cfg *config.PacingConfig) *FixedPolicy {
	return &FixedPolicy{
		Delays: map[Action]time.Duration{
			ActionNavigate:    cfg.Navigate,
			ActionScroll:      cfg.Scroll,
			ActionFieldFilled: cfg.FieldFilled,
			ActionSubmit:      cfg.Submit,
			ActionLogin:       cfg.Login,
			ActionVerify:      cfg.Verify,
			ActionSearch:      cfg.Search,
		},
		JitterFactor: cfg.JitterFactor,
	}
}

// None returns a policy with zero waits, for tests.
func None() *FixedPolicy {
	return &FixedPolicy{Delays: map[Action]time.Duration{}}
}

// Duration returns the configured delay for a, jittered if configured.
func (p *FixedPolicy) Duration(a Action) time.Duration {
	delay := p.Delays[a]
	if delay <= 0 {
		return 0
	}
	if p.JitterFactor > 0 {
		jitter := float64(delay) * p.JitterFactor
		delay += time.Duration((rand.Float64() * 2 * jitter) - jitter)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// Wait sleeps for the action's settle delay.
func (p *FixedPolicy) Wait(a Action) {
	if d := p.Duration(a); d > 0 {
		time.Sleep(d)
	}
}

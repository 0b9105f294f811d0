package browser

import (
	"context"
	"time"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/retry"
)

// WaitKind selects how Goto decides a page is ready.
type WaitKind int

const (
	// WaitDOMStable waits for the DOM to stop mutating.
	WaitDOMStable WaitKind = iota
	// WaitLoad waits for the window load event.
	WaitLoad
	// WaitNone accepts the navigation as soon as it commits.
	WaitNone
)

// Strategy is one page-readiness policy with its own deadline.
type Strategy struct {
	Name    string
	Wait    WaitKind
	Timeout time.Duration
}

// DefaultStrategies returns the readiness ladder, strictest first. A page
// that never settles still gets accepted by the best-effort rung rather
// than failing the whole navigation.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "dom-stable", Wait: WaitDOMStable, Timeout: 60 * time.Second},
		{Name: "load", Wait: WaitLoad, Timeout: 45 * time.Second},
		{Name: "best-effort", Wait: WaitNone, Timeout: 30 * time.Second},
	}
}

// Target is the navigation surface a Navigator drives.
type Target interface {
	Goto(url string, s Strategy) error
}

// Navigator retries navigation across the readiness ladder. Each attempt
// walks every strategy before counting as failed, and attempts are spaced
// by a fixed cooldown.
type Navigator struct {
	target     Target
	strategies []Strategy
	attempts   int
	cooldown   time.Duration
	log        logger.Logger
}

// NewNavigator creates a navigator using the default strategy ladder.
func NewNavigator(target Target, cfg *config.BrowserConfig, log logger.Logger) *Navigator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Navigator{
		target:     target,
		strategies: DefaultStrategies(),
		attempts:   cfg.NavAttempts,
		cooldown:   cfg.NavCooldown,
		log:        log,
	}
}

// Navigate opens the URL, falling through the readiness ladder within each
// attempt. It returns a navigation error only after every strategy of
// every attempt has failed.
func (n *Navigator) Navigate(url string) error {
	op := func() error {
		var lastErr error
		for _, s := range n.strategies {
			err := n.target.Goto(url, s)
			if err == nil {
				n.log.DebugWithFields("navigation succeeded", map[string]interface{}{
					"url":      url,
					"strategy": s.Name,
				})
				return nil
			}
			lastErr = err
			n.log.WarnWithFields("readiness strategy failed, relaxing", map[string]interface{}{
				"url":      url,
				"strategy": s.Name,
				"error":    err.Error(),
			})
		}
		return errs.Wrap(errs.ErrorTypeNavigation, "all readiness strategies failed for "+url, lastErr)
	}

	return retry.Do(op, &retry.Config{
		MaxAttempts: n.attempts,
		Backoff:     &retry.ConstantBackoff{Delay: n.cooldown},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      n.log,
	})
}

// Package automator drives browser-based application submission. One
// automation run owns a single browser session and walks eligible jobs
// sequentially through navigate → authenticate → fill → verify → submit.
package automator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

// Outcome is the detected result of a submitted application.
type Outcome int

const (
	// OutcomeUnknown means the page matched neither phrase set. It is
	// treated as Failed: no false positives on success.
	OutcomeUnknown Outcome = iota
	OutcomeApplied
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrVerificationTimeout reports that a human verification challenge was not
// resolved within the bounded wait.
var ErrVerificationTimeout = errors.New("human verification timed out")

// ErrUnknownSite reports that no adapter is registered for a link's domain.
var ErrUnknownSite = errors.New("no adapter registered for site")

// SiteAdapter is the contract every application-automation adapter
// implements. Methods receive the run's shared browser session; each returns
// an error instead of propagating site-specific failures upward.
type SiteAdapter interface {
	Name() string

	// NavigateToApplication brings the session to the application form for
	// link and returns the form's URL. The returned URL may live on another
	// adapter's domain, in which case the automator hands the attempt off.
	NavigateToApplication(ctx context.Context, s *Session, link string) (string, error)

	// AuthenticateIfRequired logs in when the site requires it. It is
	// idempotent: with an authenticated session it is a no-op.
	AuthenticateIfRequired(ctx context.Context, s *Session) error

	// FillForm populates the application form from the profile. Missing
	// required profile fields fail fast before anything is typed.
	FillForm(ctx context.Context, s *Session, p config.Profile) error

	// AwaitHumanVerification blocks until a present CAPTCHA (or similar
	// challenge) is resolved, polling up to timeout. Sites without a
	// challenge return immediately. Returns ErrVerificationTimeout when the
	// bound is hit.
	AwaitHumanVerification(ctx context.Context, s *Session, timeout time.Duration) error

	// Submit sends the completed form.
	Submit(ctx context.Context, s *Session) error

	// DetectOutcome scans the rendered result page for the site's success
	// and error phrase sets.
	DetectOutcome(ctx context.Context, s *Session) (Outcome, error)
}

// Registry maps site domains to adapters. New sites register an adapter
// without touching the dispatcher.
type Registry struct {
	adapters map[string]SiteAdapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]SiteAdapter)}
}

// Register binds an adapter to a domain (e.g. "tunisietravail.net"). The
// domain also matches its subdomains.
func (r *Registry) Register(domain string, a SiteAdapter) {
	r.adapters[strings.ToLower(domain)] = a
}

// Lookup resolves the adapter responsible for a job link. Unknown domains
// return ErrUnknownSite.
func (r *Registry) Lookup(link string) (SiteAdapter, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parsing link %s: %w", link, err)
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for domain, a := range r.adapters {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSite, host)
}

package automator

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

// verificationPollInterval is how often the CAPTCHA wait re-checks the
// completion signal.
const verificationPollInterval = 2 * time.Second

// userAgent matches the one the source fetchers send, so the sites see a
// consistent client across discovery and application.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Session owns one browser for the duration of an automation run. It is the
// run's exclusive resource: jobs share it sequentially, never in parallel,
// so cookies and login state survive across cross-site handoffs.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	stepTimeout time.Duration
}

// NewSession launches a browser bound to parent. Cancelling parent tears the
// browser down even mid-job.
func NewSession(parent context.Context, cfg config.AutomationConfig) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken Chrome install fails the run
	// before any attempt is consumed.
	if err := chromedp.Run(ctx, emulation.SetUserAgentOverride(userAgent)); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		stepTimeout: cfg.NavigationTimeout,
	}, nil
}

// Run executes actions with the per-step timeout. Element waits inside
// actions are bounded by it; there is no unbounded retry at this layer.
func (s *Session) Run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.stepTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	var loc string
	if err := s.Run(chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

// PageText returns the visible text of the current page body.
func (s *Session) PageText() (string, error) {
	var text string
	if err := s.Run(chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page text: %w", err)
	}
	return text, nil
}

// PollUntil evaluates js (which must yield a boolean) every poll interval
// until it reports true or timeout elapses. This is the bounded human
// verification wait: on timeout it returns ErrVerificationTimeout.
func (s *Session) PollUntil(ctx context.Context, js string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var done bool
		if err := s.Run(chromedp.Evaluate(js, &done)); err != nil {
			return fmt.Errorf("polling verification signal: %w", err)
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrVerificationTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(verificationPollInterval):
		}
	}
}

// Close releases the browser and its allocator.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

package automator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

const keejobLoginURL = "https://www.keejob.com/login/"

// KeejobAdapter automates keejob.com. Keejob is an aggregator: a posting's
// "Postuler" button may open an on-site form or redirect to the employer's
// site, in which case the caller hands the run over to another adapter.
type KeejobAdapter struct {
	creds config.Credentials
}

func NewKeejobAdapter(creds config.Credentials) *KeejobAdapter {
	return &KeejobAdapter{creds: creds}
}

func (a *KeejobAdapter) Name() string { return "keejob" }

// AuthenticateIfRequired logs in with the configured account. It is
// idempotent: if the session already carries a logged-in cookie the login
// page redirects away and the form never appears. The caller has already
// navigated to the application form, so the session must be brought back
// there once the login detour is done.
func (a *KeejobAdapter) AuthenticateIfRequired(ctx context.Context, s *Session) error {
	if a.creds.KeejobEmail == "" || a.creds.KeejobPassword == "" {
		return errors.New("keejob credentials are not configured")
	}

	returnTo, err := s.Location()
	if err != nil {
		return err
	}

	if err := s.Run(chromedp.Navigate(keejobLoginURL)); err != nil {
		return fmt.Errorf("loading login page: %w", err)
	}

	loc, err := s.Location()
	if err != nil {
		return err
	}
	if strings.Contains(loc, "/login") {
		err = s.Run(
			chromedp.WaitVisible(`input[name="email"]`, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="email"]`, a.creds.KeejobEmail, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="password"]`, a.creds.KeejobPassword, chromedp.ByQuery),
			chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
			chromedp.Sleep(3*time.Second),
		)
		if err != nil {
			return fmt.Errorf("submitting login form: %w", err)
		}

		loc, err = s.Location()
		if err != nil {
			return err
		}
		if strings.Contains(loc, "/login") {
			return errors.New("login rejected, check keejob credentials")
		}
	}

	err = s.Run(
		chromedp.Navigate(returnTo),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("returning to application form: %w", err)
	}
	return nil
}

// NavigateToApplication opens the posting and clicks through to the
// application. The returned URL may be off-site when the employer collects
// applications elsewhere.
func (a *KeejobAdapter) NavigateToApplication(ctx context.Context, s *Session, link string) (string, error) {
	err := s.Run(
		chromedp.Navigate(link),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("loading posting: %w", err)
	}

	err = s.Run(
		chromedp.Click(`a.btn-postuler, a[href*="apply"], button.apply-button`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("opening application: %w", err)
	}

	loc, err := s.Location()
	if err != nil {
		return "", err
	}
	return loc, nil
}

// FillForm completes keejob's on-site application form. The account profile
// prefills most fields, so only the motivation textarea and CV need filling
// when present.
func (a *KeejobAdapter) FillForm(ctx context.Context, s *Session, p config.Profile) error {
	if err := requireProfileFields(p); err != nil {
		return err
	}

	var hasUpload bool
	err := s.Run(chromedp.Evaluate(`!!document.querySelector('input[type="file"]')`, &hasUpload))
	if err != nil {
		return fmt.Errorf("inspecting application form: %w", err)
	}

	var hasMessage bool
	err = s.Run(chromedp.Evaluate(`!!document.querySelector('textarea[name="message"], textarea[name="motivation"]')`, &hasMessage))
	if err != nil {
		return fmt.Errorf("inspecting application form: %w", err)
	}

	// A page with neither field is not an application form; submitting
	// whatever it does carry would burn the attempt on garbage.
	if !hasUpload && !hasMessage {
		return errors.New("no application form on page")
	}

	if hasUpload {
		if err := s.Run(chromedp.SetUploadFiles(`input[type="file"]`, []string{p.CVPath}, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("uploading CV: %w", err)
		}
	}

	if hasMessage {
		motivation := fmt.Sprintf("Bonjour, je suis %s %s et je souhaite postuler à cette offre. Vous trouverez mon CV ci-joint.", p.FirstName, p.LastName)
		if err := s.Run(chromedp.SendKeys(`textarea[name="message"], textarea[name="motivation"]`, motivation, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("filling motivation: %w", err)
		}
	}
	return nil
}

// AwaitHumanVerification waits only when a reCAPTCHA widget is actually on
// the page; keejob's on-site form usually has none.
func (a *KeejobAdapter) AwaitHumanVerification(ctx context.Context, s *Session, timeout time.Duration) error {
	var hasCaptcha bool
	err := s.Run(chromedp.Evaluate(`!!document.querySelector('.g-recaptcha, .g-recaptcha-response')`, &hasCaptcha))
	if err != nil {
		return fmt.Errorf("inspecting page for captcha: %w", err)
	}
	if !hasCaptcha {
		return nil
	}
	const js = `(function() {
		var el = document.querySelector('.g-recaptcha-response');
		return !!el && el.value.length > 0;
	})()`
	return s.PollUntil(ctx, js, timeout)
}

func (a *KeejobAdapter) Submit(ctx context.Context, s *Session) error {
	err := s.Run(
		chromedp.Click(`button[type="submit"], input[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("clicking submit: %w", err)
	}
	return nil
}

var (
	keejobSuccessPhrases = []string{
		"votre candidature a bien été envoyée",
		"candidature envoyée",
		"votre candidature a été transmise",
	}
	keejobErrorPhrases = []string{
		"vous avez déjà postulé",
		"une erreur est survenue",
		"champ obligatoire",
	}
)

func (a *KeejobAdapter) DetectOutcome(ctx context.Context, s *Session) (Outcome, error) {
	text, err := s.PageText()
	if err != nil {
		return OutcomeUnknown, err
	}
	return classifyOutcome(text, keejobSuccessPhrases, keejobErrorPhrases), nil
}

package automator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/aminebalti55/ChemistryJobs/internal/config"
)

const tunisietravailApplyURL = "https://www.tunisietravail.net/candidate/?post_id=%s"

var postIDRe = regexp.MustCompile(`post_id=(\d+)`)

// TunisieTravailAdapter automates the public application form on
// tunisietravail.net. The form needs no login but is guarded by a reCAPTCHA,
// which is left to the human operator within the bounded verification wait.
type TunisieTravailAdapter struct{}

func NewTunisieTravailAdapter() *TunisieTravailAdapter { return &TunisieTravailAdapter{} }

func (a *TunisieTravailAdapter) Name() string { return "tunisietravail" }

// NavigateToApplication derives the candidate form URL from the posting's
// post_id and loads it.
func (a *TunisieTravailAdapter) NavigateToApplication(ctx context.Context, s *Session, link string) (string, error) {
	m := postIDRe.FindStringSubmatch(link)
	if m == nil {
		return "", fmt.Errorf("no post_id in link %s", link)
	}
	appURL := fmt.Sprintf(tunisietravailApplyURL, m[1])

	err := s.Run(
		chromedp.Navigate(appURL),
		chromedp.WaitVisible("#nom", chromedp.ByID),
	)
	if err != nil {
		return "", fmt.Errorf("loading application form: %w", err)
	}
	return appURL, nil
}

// AuthenticateIfRequired is a no-op: the candidate form is public.
func (a *TunisieTravailAdapter) AuthenticateIfRequired(ctx context.Context, s *Session) error {
	return nil
}

// FillForm populates the candidate form: identity, location, education,
// experience, languages, CV upload and the terms checkbox.
func (a *TunisieTravailAdapter) FillForm(ctx context.Context, s *Session, p config.Profile) error {
	if err := requireProfileFields(p); err != nil {
		return err
	}

	err := s.Run(
		chromedp.SendKeys("#nom", p.LastName, chromedp.ByID),
		chromedp.SendKeys("#prenom", p.FirstName, chromedp.ByID),
		chromedp.SendKeys("#cin", p.CIN, chromedp.ByID),
		chromedp.SendKeys("#telephone1", p.Phone, chromedp.ByID),
		chromedp.SendKeys("#email", p.Email, chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("filling identity fields: %w", err)
	}

	// Country first; the region selector is populated from it.
	if err := s.Run(chromedp.SetValue("#country_selector", "1", chromedp.ByID)); err != nil {
		return fmt.Errorf("selecting country: %w", err)
	}
	if err := s.Run(
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(selectByTextJS("region_selector", p.Region), nil),
	); err != nil {
		return fmt.Errorf("selecting region %q: %w", p.Region, err)
	}

	err = s.Run(
		chromedp.Click("#diplome_oui", chromedp.ByID),
		chromedp.Sleep(time.Second),
		chromedp.SetValue("#u_diplome_detail", p.Diploma, chromedp.ByID),
		chromedp.Click("#experience_oui", chromedp.ByID),
		chromedp.Sleep(time.Second),
		chromedp.SetValue("#duree_experience", p.ExperienceBracket, chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("filling education and experience: %w", err)
	}

	for _, lang := range p.Languages {
		if err := s.Run(chromedp.Evaluate(checkLanguageJS(lang), nil)); err != nil {
			return fmt.Errorf("checking language %q: %w", lang, err)
		}
	}

	err = s.Run(
		chromedp.SetUploadFiles(`input[name="fichier[]"]`, []string{p.CVPath}, chromedp.ByQuery),
		chromedp.Click("#useforms", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("uploading CV: %w", err)
	}
	return nil
}

// AwaitHumanVerification polls the reCAPTCHA response token until the
// operator solves the challenge or timeout elapses.
func (a *TunisieTravailAdapter) AwaitHumanVerification(ctx context.Context, s *Session, timeout time.Duration) error {
	const js = `(function() {
		var el = document.querySelector('.g-recaptcha-response');
		return !!el && el.value.length > 0;
	})()`
	return s.PollUntil(ctx, js, timeout)
}

// Submit clicks the form's submit button and gives the site a moment to
// process the POST.
func (a *TunisieTravailAdapter) Submit(ctx context.Context, s *Session) error {
	err := s.Run(
		chromedp.Click("#submitBtn", chromedp.ByID),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("clicking submit: %w", err)
	}
	return nil
}

var (
	tunisietravailSuccessPhrases = []string{
		"votre candidature a été envoyée",
		"candidature envoyée avec succès",
		"merci pour votre candidature",
	}
	tunisietravailErrorPhrases = []string{
		"champ obligatoire",
		"une erreur est survenue",
		"veuillez vérifier",
	}
)

// DetectOutcome scans the rendered page for the site's French success and
// error phrase sets.
func (a *TunisieTravailAdapter) DetectOutcome(ctx context.Context, s *Session) (Outcome, error) {
	text, err := s.PageText()
	if err != nil {
		return OutcomeUnknown, err
	}
	return classifyOutcome(text, tunisietravailSuccessPhrases, tunisietravailErrorPhrases), nil
}

// requireProfileFields fails fast when the form cannot be completed, rather
// than submitting incomplete data.
func requireProfileFields(p config.Profile) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"phone", p.Phone},
		{"email", p.Email},
		{"cv_path", p.CVPath},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("profile is missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// classifyOutcome matches page text against success phrases first, then
// error phrases. Anything else is Unknown, which callers treat as Failed.
func classifyOutcome(text string, successPhrases, errorPhrases []string) Outcome {
	lower := strings.ToLower(text)
	for _, phrase := range successPhrases {
		if strings.Contains(lower, phrase) {
			return OutcomeApplied
		}
	}
	for _, phrase := range errorPhrases {
		if strings.Contains(lower, phrase) {
			return OutcomeFailed
		}
	}
	return OutcomeUnknown
}

func selectByTextJS(id, text string) string {
	return fmt.Sprintf(`(function() {
		var sel = document.getElementById(%q);
		if (!sel) return;
		for (var i = 0; i < sel.options.length; i++) {
			if (sel.options[i].text.trim() === %q) { sel.selectedIndex = i; sel.dispatchEvent(new Event('change')); return; }
		}
	})()`, id, text)
}

func checkLanguageJS(lang string) string {
	return fmt.Sprintf(`(function() {
		var box = document.querySelector('input[type="checkbox"][value=%q]');
		if (box && !box.checked) box.click();
	})()`, lang)
}

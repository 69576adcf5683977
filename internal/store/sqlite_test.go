package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func candidate(link string) model.Candidate {
	return model.Candidate{
		Title:       "Chimiste Analytique",
		Link:        link,
		PublishDate: time.Now().AddDate(0, 0, -1),
		Location:    "Tunis",
		Description: "Analyse chimique en laboratoire.",
	}
}

func insertJob(t *testing.T, s *SQLiteStore, link string) model.JobRecord {
	t.Helper()
	if _, err := s.InsertDiscovered(candidate(link)); err != nil {
		t.Fatalf("InsertDiscovered: %v", err)
	}
	j, err := s.JobByLink(link)
	if err != nil {
		t.Fatalf("JobByLink: %v", err)
	}
	return j
}

func TestInsertDiscoveredIdempotent(t *testing.T) {
	s := newTestStore(t)

	added, err := s.InsertDiscovered(candidate("https://keejob.com/offres/1"))
	if err != nil {
		t.Fatalf("first InsertDiscovered: %v", err)
	}
	if !added {
		t.Error("expected first discovery to add a record")
	}

	added, err = s.InsertDiscovered(candidate("https://keejob.com/offres/1"))
	if err != nil {
		t.Fatalf("second InsertDiscovered: %v", err)
	}
	if added {
		t.Error("expected second discovery of the same link to be a no-op")
	}

	jobs, err := s.Jobs(JobQuery{})
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(jobs))
	}
	if jobs[0].State != model.StateDiscovered {
		t.Errorf("expected state discovered, got %s", jobs[0].State)
	}
	if jobs[0].ApplicationAttempts != 0 {
		t.Errorf("expected 0 attempts on discovery, got %d", jobs[0].ApplicationAttempts)
	}
}

func TestFreshnessFlagsComputedAtInsert(t *testing.T) {
	s := newTestStore(t)

	fresh := candidate("https://a")
	fresh.PublishDate = time.Now().AddDate(0, 0, -1)
	stale := candidate("https://b")
	stale.PublishDate = time.Now().AddDate(0, 0, -20)

	for _, c := range []model.Candidate{fresh, stale} {
		if _, err := s.InsertDiscovered(c); err != nil {
			t.Fatalf("InsertDiscovered: %v", err)
		}
	}

	j, _ := s.JobByLink("https://a")
	if !j.IsNew || j.IsOld {
		t.Errorf("1-day-old posting: is_new=%v is_old=%v, want true/false", j.IsNew, j.IsOld)
	}
	j, _ = s.JobByLink("https://b")
	if j.IsNew || !j.IsOld {
		t.Errorf("20-day-old posting: is_new=%v is_old=%v, want false/true", j.IsNew, j.IsOld)
	}
}

func TestAttemptMonotonicity(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://tunisietravail.net/job?post_id=9")

	for i := 1; i <= model.MaxApplicationAttempts; i++ {
		n, err := s.BeginAttempt(j.ID)
		if err != nil {
			t.Fatalf("BeginAttempt %d: %v", i, err)
		}
		if n != i {
			t.Errorf("attempt %d: counter = %d", i, n)
		}
		if err := s.FinishAttempt(j.ID, false, "tunisietravail", "navigation error"); err != nil {
			t.Fatalf("FinishAttempt %d: %v", i, err)
		}
	}

	// Budget spent: further attempts are refused and the counter stays put.
	if _, err := s.BeginAttempt(j.ID); !errors.Is(err, ErrAttemptNotAllowed) {
		t.Fatalf("expected ErrAttemptNotAllowed after budget exhaustion, got %v", err)
	}
	got, _ := s.JobByLink(j.Link)
	if got.ApplicationAttempts != model.MaxApplicationAttempts {
		t.Errorf("attempt counter = %d, want %d", got.ApplicationAttempts, model.MaxApplicationAttempts)
	}
}

func TestBudgetExhaustionExcludesFromUnappliedQuery(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://tunisietravail.net/job?post_id=5")

	for i := 0; i < model.MaxApplicationAttempts; i++ {
		if _, err := s.BeginAttempt(j.ID); err != nil {
			t.Fatalf("BeginAttempt: %v", err)
		}
		if err := s.FinishAttempt(j.ID, false, "tunisietravail", "timeout"); err != nil {
			t.Fatalf("FinishAttempt: %v", err)
		}
	}

	unapplied, err := s.UnappliedJobs()
	if err != nil {
		t.Fatalf("UnappliedJobs: %v", err)
	}
	for _, u := range unapplied {
		if u.ID == j.ID {
			t.Error("job with exhausted attempt budget must not appear in the unapplied query")
		}
	}
}

func TestSuccessfulApplicationIsTerminal(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://tunisietravail.net/job?post_id=7")

	if _, err := s.BeginAttempt(j.ID); err != nil {
		t.Fatalf("BeginAttempt: %v", err)
	}
	if err := s.FinishAttempt(j.ID, true, "tunisietravail", ""); err != nil {
		t.Fatalf("FinishAttempt: %v", err)
	}

	got, _ := s.JobByLink(j.Link)
	if !got.Applied() {
		t.Fatal("expected application_success = true")
	}
	if got.State != model.StateApplied {
		t.Errorf("state = %s, want applied", got.State)
	}

	// Successful jobs never reappear and never accept another attempt.
	unapplied, err := s.UnappliedJobs()
	if err != nil {
		t.Fatalf("UnappliedJobs: %v", err)
	}
	for _, u := range unapplied {
		if u.ID == j.ID {
			t.Error("successfully applied job must not appear in the unapplied query")
		}
	}
	if _, err := s.BeginAttempt(j.ID); !errors.Is(err, ErrAttemptNotAllowed) {
		t.Errorf("expected ErrAttemptNotAllowed for applied job, got %v", err)
	}
}

func TestAttemptHistoryAppendOnly(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://keejob.com/offres/42")

	if _, err := s.BeginAttempt(j.ID); err != nil {
		t.Fatalf("BeginAttempt: %v", err)
	}
	if err := s.FinishAttempt(j.ID, false, "keejob", "verification timeout after 120s"); err != nil {
		t.Fatalf("FinishAttempt: %v", err)
	}
	if _, err := s.BeginAttempt(j.ID); err != nil {
		t.Fatalf("BeginAttempt: %v", err)
	}
	if err := s.FinishAttempt(j.ID, true, "keejob", ""); err != nil {
		t.Fatalf("FinishAttempt: %v", err)
	}

	attempts, err := s.Attempts(j.ID)
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(attempts))
	}
	got, _ := s.JobByLink(j.Link)
	if len(attempts) > got.ApplicationAttempts {
		t.Errorf("history rows (%d) exceed recorded attempt count (%d)", len(attempts), got.ApplicationAttempts)
	}
	if attempts[0].ErrorMessage != "verification timeout after 120s" {
		t.Errorf("unexpected first error message %q", attempts[0].ErrorMessage)
	}
	if attempts[0].Success || !attempts[1].Success {
		t.Error("history should preserve per-attempt outcomes in order")
	}
}

func TestUnappliedJobsOrderedByInsertion(t *testing.T) {
	s := newTestStore(t)
	first := insertJob(t, s, "https://a/1")
	second := insertJob(t, s, "https://a/2")
	third := insertJob(t, s, "https://a/3")

	jobs, err := s.UnappliedJobs()
	if err != nil {
		t.Fatalf("UnappliedJobs: %v", err)
	}
	want := []int64{first.ID, second.ID, third.ID}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, id := range want {
		if jobs[i].ID != id {
			t.Errorf("position %d: got job %d, want %d", i, jobs[i].ID, id)
		}
	}
}

func TestJobsQueryFilters(t *testing.T) {
	s := newTestStore(t)

	c := candidate("https://a/chimie")
	c.Title = "Chimiste Analytique"
	if _, err := s.InsertDiscovered(c); err != nil {
		t.Fatal(err)
	}
	c = candidate("https://a/eau")
	c.Title = "Ingénieur Eau"
	c.Description = "Traitement des eaux industrielles."
	if _, err := s.InsertDiscovered(c); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.Jobs(JobQuery{Keyword: "eaux"})
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Link != "https://a/eau" {
		t.Errorf("keyword filter returned %d jobs", len(jobs))
	}

	jobs, err = s.Jobs(JobQuery{State: model.StateDiscovered})
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("state filter returned %d jobs, want 2", len(jobs))
	}
}

func TestMarkClicked(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://keejob.com/offres/3")

	if err := s.MarkClicked(j.Link); err != nil {
		t.Fatalf("MarkClicked: %v", err)
	}
	got, _ := s.JobByLink(j.Link)
	if !got.IsClicked {
		t.Error("expected is_clicked after MarkClicked")
	}

	if err := s.MarkClicked("https://nope"); err == nil {
		t.Error("expected error for unknown link")
	}
}

func TestAcquisitionLog(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.LastAcquisition()
	if err != nil {
		t.Fatalf("LastAcquisition: %v", err)
	}
	if ok {
		t.Error("expected no acquisition entries in a fresh store")
	}

	if err := s.LogAcquisition(7); err != nil {
		t.Fatalf("LogAcquisition: %v", err)
	}
	ts, ok, err := s.LastAcquisition()
	if err != nil {
		t.Fatalf("LastAcquisition: %v", err)
	}
	if !ok {
		t.Fatal("expected an acquisition entry after logging")
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("unexpected acquisition timestamp %v", ts)
	}
}

func TestStatsBySite(t *testing.T) {
	s := newTestStore(t)
	j := insertJob(t, s, "https://tunisietravail.net/job?post_id=1")
	k := insertJob(t, s, "https://keejob.com/offres/2")

	s.BeginAttempt(j.ID)
	s.FinishAttempt(j.ID, true, "tunisietravail", "")
	s.BeginAttempt(k.ID)
	s.FinishAttempt(k.ID, false, "keejob", "authentication failed")

	stats, err := s.StatsBySite()
	if err != nil {
		t.Fatalf("StatsBySite: %v", err)
	}
	if st := stats["tunisietravail"]; st.Attempts != 1 || st.Successes != 1 {
		t.Errorf("tunisietravail stats = %+v", st)
	}
	if st := stats["keejob"]; st.Attempts != 1 || st.Successes != 0 {
		t.Errorf("keejob stats = %+v", st)
	}
}

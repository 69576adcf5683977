package store

import "github.com/aminebalti55/ChemistryJobs/internal/model"

// Ensure NopStore satisfies the acquisition pipeline's store surface.
var _ model.CandidateStore = (*NopStore)(nil)

// NopStore is a no-op candidate store used in dry-run acquisition. It reports
// every link as unknown and persists nothing, so a dry run shows the full set
// of candidates that would be committed.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasLink(link string) (bool, error)                { return false, nil }
func (s *NopStore) InsertDiscovered(c model.Candidate) (bool, error) { return true, nil }
func (s *NopStore) LogAcquisition(added int) error                   { return nil }

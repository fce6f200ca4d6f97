package caregivers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/careflow/internal/listing"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Service manages caregiver assignments.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger *logging.Logger
}

// NewService wires a service around repo. now may be nil.
func NewService(repo Repository, now func() time.Time, logger *logging.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, now: now, logger: logger}
}

// Assign makes caregiverRef the patient's current caregiver. A previous
// active assignment is revoked, not overwritten, so History keeps it.
func (s *Service) Assign(ctx context.Context, req AssignRequest, assignedBy string) (Assignment, error) {
	if err := req.Validate(); err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:           uuid.New().String(),
		PatientRef:   req.PatientRef,
		CaregiverRef: req.CaregiverRef,
		Notes:        req.Notes,
		AssignedBy:   assignedBy,
		AssignedAt:   s.now().UTC(),
		Version:      1,
	}
	revoked, err := s.repo.Assign(ctx, a)
	if err != nil {
		return Assignment{}, err
	}
	if revoked != nil {
		s.logger.Info("caregiver reassigned",
			"patient_ref", a.PatientRef,
			"previous_caregiver", revoked.CaregiverRef,
			"caregiver", a.CaregiverRef,
		)
	} else {
		s.logger.Info("caregiver assigned", "patient_ref", a.PatientRef, "caregiver", a.CaregiverRef)
	}
	return a, nil
}

// Current returns the patient's active assignment.
func (s *Service) Current(ctx context.Context, patientRef string) (Assignment, error) {
	patientRef = strings.TrimSpace(patientRef)
	if err := validate.Required("patientRef", patientRef); err != nil {
		return Assignment{}, err
	}
	return s.repo.Current(ctx, patientRef)
}

// History returns every assignment of the patient, newest first.
func (s *Service) History(ctx context.Context, patientRef string) ([]Assignment, error) {
	out, err := s.repo.History(ctx, strings.TrimSpace(patientRef))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Assignment{}
	}
	return out, nil
}

// List returns one page of assignments.
func (s *Service) List(ctx context.Context, q listing.Query) (listing.Page[Assignment], error) {
	return s.repo.List(ctx, q)
}

// Unassign revokes an active assignment.
func (s *Service) Unassign(ctx context.Context, id, actor string) (Assignment, error) {
	a, err := s.repo.Revoke(ctx, id, s.now().UTC())
	if err != nil {
		return Assignment{}, err
	}
	s.logger.Info("caregiver unassigned", "id", id, "patient_ref", a.PatientRef, "actor", actor)
	return a, nil
}

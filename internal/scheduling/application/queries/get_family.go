package queries

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// GetFamilyQuery fetches one family with its visit chain.
type GetFamilyQuery struct {
	FamilyID uuid.UUID
}

// QueryName returns the query name.
func (q GetFamilyQuery) QueryName() string { return "scheduling.get_family" }

// FamilyView is a family plus every visit that references it, pending first,
// then by date.
type FamilyView struct {
	Family    *domain.Family
	Instances []*domain.Appointment
}

// GetFamilyHandler handles the GetFamilyQuery.
type GetFamilyHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
}

// NewGetFamilyHandler creates a new GetFamilyHandler.
func NewGetFamilyHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
) *GetFamilyHandler {
	return &GetFamilyHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
	}
}

// Handle executes the GetFamilyQuery.
func (h *GetFamilyHandler) Handle(ctx context.Context, q GetFamilyQuery) (*FamilyView, error) {
	family, err := h.familyRepo.FindByID(ctx, q.FamilyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, domain.ErrFamilyNotFound
	}

	instances, err := h.appointmentRepo.FindByFamily(ctx, q.FamilyID)
	if err != nil {
		return nil, err
	}
	sortInstances(instances)

	return &FamilyView{Family: family, Instances: instances}, nil
}

func sortInstances(instances []*domain.Appointment) {
	sort.SliceStable(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if a.IsPending() != b.IsPending() {
			return a.IsPending()
		}
		return a.Date().Before(b.Date())
	})
}

package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// InMemoryFamilyRepository is a map-backed domain.FamilyRepository used by
// end-to-end tests and demo wiring. Safe for concurrent use.
type InMemoryFamilyRepository struct {
	mu       sync.RWMutex
	families map[uuid.UUID]*domain.Family
}

// NewInMemoryFamilyRepository creates an empty in-memory family repository.
func NewInMemoryFamilyRepository() *InMemoryFamilyRepository {
	return &InMemoryFamilyRepository{families: make(map[uuid.UUID]*domain.Family)}
}

func (r *InMemoryFamilyRepository) Save(_ context.Context, family *domain.Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[family.ID()] = family
	return nil
}

func (r *InMemoryFamilyRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.families[id], nil
}

func (r *InMemoryFamilyRepository) FindByStatus(_ context.Context, status domain.FamilyStatus) ([]*domain.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]*domain.Family, 0)
	for _, f := range r.families {
		if f.Status() == status {
			families = append(families, f)
		}
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].CreatedAt().Before(families[j].CreatedAt())
	})
	return families, nil
}

func (r *InMemoryFamilyRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.families[id]; !ok {
		return domain.ErrFamilyNotFound
	}
	delete(r.families, id)
	return nil
}

// InMemoryAppointmentRepository is a map-backed domain.AppointmentRepository.
type InMemoryAppointmentRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*domain.Appointment
}

// NewInMemoryAppointmentRepository creates an empty in-memory visit
// repository.
func NewInMemoryAppointmentRepository() *InMemoryAppointmentRepository {
	return &InMemoryAppointmentRepository{appointments: make(map[uuid.UUID]*domain.Appointment)}
}

func (r *InMemoryAppointmentRepository) Save(_ context.Context, appointment *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[appointment.ID()] = appointment
	return nil
}

func (r *InMemoryAppointmentRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.appointments[id], nil
}

func (r *InMemoryAppointmentRepository) FindByFamily(_ context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appointments := make([]*domain.Appointment, 0)
	for _, a := range r.appointments {
		if a.BelongsToFamily(familyID) {
			appointments = append(appointments, a)
		}
	}
	sortByDate(appointments)
	return appointments, nil
}

func (r *InMemoryAppointmentRepository) FindByDate(_ context.Context, date time.Time) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := domain.NormalizeDate(date)
	appointments := make([]*domain.Appointment, 0)
	for _, a := range r.appointments {
		if a.Date().Equal(day) {
			appointments = append(appointments, a)
		}
	}
	sortByDate(appointments)
	return appointments, nil
}

func (r *InMemoryAppointmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return domain.ErrInstanceNotFound
	}
	delete(r.appointments, id)
	return nil
}

func sortByDate(appointments []*domain.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if !appointments[i].Date().Equal(appointments[j].Date()) {
			return appointments[i].Date().Before(appointments[j].Date())
		}
		return appointments[i].Clock() < appointments[j].Clock()
	})
}

// InMemoryTemplateReader serves job templates from a fixed map.
type InMemoryTemplateReader struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]domain.Template
}

// NewInMemoryTemplateReader creates an empty in-memory template reader.
func NewInMemoryTemplateReader() *InMemoryTemplateReader {
	return &InMemoryTemplateReader{templates: make(map[uuid.UUID]domain.Template)}
}

// Put registers a template.
func (r *InMemoryTemplateReader) Put(tmpl domain.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.ID] = tmpl
}

func (r *InMemoryTemplateReader) FindByID(_ context.Context, id uuid.UUID) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	return &tmpl, nil
}

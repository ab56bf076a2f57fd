package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/mock"
)

// mockFamilyRepo is a mock implementation of domain.FamilyRepository.
type mockFamilyRepo struct {
	mock.Mock
}

func (m *mockFamilyRepo) Save(ctx context.Context, family *domain.Family) error {
	args := m.Called(ctx, family)
	return args.Error(0)
}

func (m *mockFamilyRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Family, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Family), args.Error(1)
}

func (m *mockFamilyRepo) FindByStatus(ctx context.Context, status domain.FamilyStatus) ([]*domain.Family, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Family), args.Error(1)
}

func (m *mockFamilyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockAppointmentRepo is a mock implementation of domain.AppointmentRepository.
type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Save(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindByDate(ctx context.Context, date time.Time) ([]*domain.Appointment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockTemplateReader is a mock implementation of domain.TemplateReader.
type mockTemplateReader struct {
	mock.Mock
}

func (m *mockTemplateReader) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) CountPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// passthroughUnitOfWork commits trivially; used where the test cares about
// repository effects, not transaction choreography.
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (passthroughUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (passthroughUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

// memoryAppointmentRepo is a stateful store for tests that exercise
// reconciliation, where the repository contents change mid-handler.
type memoryAppointmentRepo struct {
	appointments map[uuid.UUID]*domain.Appointment
}

func newMemoryAppointmentRepo(seed ...*domain.Appointment) *memoryAppointmentRepo {
	repo := &memoryAppointmentRepo{appointments: make(map[uuid.UUID]*domain.Appointment)}
	for _, appt := range seed {
		repo.appointments[appt.ID()] = appt
	}
	return repo
}

func (m *memoryAppointmentRepo) Save(ctx context.Context, appointment *domain.Appointment) error {
	m.appointments[appointment.ID()] = appointment
	return nil
}

func (m *memoryAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	return m.appointments[id], nil
}

func (m *memoryAppointmentRepo) FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	var result []*domain.Appointment
	for _, a := range m.appointments {
		if a.BelongsToFamily(familyID) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryAppointmentRepo) FindByDate(ctx context.Context, date time.Time) ([]*domain.Appointment, error) {
	dayStart := domain.NormalizeDate(date)
	var result []*domain.Appointment
	for _, a := range m.appointments {
		if a.Date().Equal(dayStart) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func (m *memoryAppointmentRepo) pendingOf(familyID uuid.UUID) []*domain.Appointment {
	var result []*domain.Appointment
	for _, a := range m.appointments {
		if a.BelongsToFamily(familyID) && a.IsPending() {
			result = append(result, a)
		}
	}
	return result
}

func testTemplate() domain.Template {
	return domain.Template{
		ID:          uuid.New(),
		Address:     "12 Harbour Lane",
		PriceCents:  14500,
		SizeSqm:     90,
		ServiceType: "standard",
	}
}

func newTestFamily(firstDate time.Time) *domain.Family {
	family, err := domain.NewFamily(uuid.New(), uuid.New(), domain.DefaultRule(), firstDate)
	if err != nil {
		panic(err)
	}
	family.ClearDomainEvents()
	return family
}

func newPendingInstance(family *domain.Family, date time.Time, clock string) *domain.Appointment {
	familyID := family.ID()
	appt, err := domain.NewAppointment(
		family.ClientID(), family.TemplateID(), &familyID,
		date, clock, domain.StatusPendingConfirm, testTemplate(),
	)
	if err != nil {
		panic(err)
	}
	return appt
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

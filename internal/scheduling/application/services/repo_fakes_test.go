package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// Map-backed appointment repository for service tests.
type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*domain.Appointment
	err          error
	saves        int
	deletes      int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]*domain.Appointment),
	}
}

func (m *fakeAppointmentRepo) Save(ctx context.Context, appointment *domain.Appointment) error {
	if m.err != nil {
		return m.err
	}
	m.appointments[appointment.ID()] = appointment
	m.saves++
	return nil
}

func (m *fakeAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.appointments[id], nil
}

func (m *fakeAppointmentRepo) FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []*domain.Appointment
	for _, a := range m.appointments {
		if a.BelongsToFamily(familyID) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *fakeAppointmentRepo) FindByDate(ctx context.Context, date time.Time) ([]*domain.Appointment, error) {
	if m.err != nil {
		return nil, m.err
	}
	day := domain.NormalizeDate(date)
	var result []*domain.Appointment
	for _, a := range m.appointments {
		if a.Date().Equal(day) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *fakeAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	delete(m.appointments, id)
	m.deletes++
	return nil
}

func (m *fakeAppointmentRepo) pendingOf(familyID uuid.UUID) []*domain.Appointment {
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

func mustAppointment(
	familyID *uuid.UUID,
	date time.Time,
	clock string,
	status domain.AppointmentStatus,
	staffIDs []uuid.UUID,
) *domain.Appointment {
	appt, err := domain.NewAppointment(uuid.New(), uuid.New(), familyID, date, clock, status, testTemplate())
	if err != nil {
		panic(err)
	}
	if len(staffIDs) > 0 {
		appt.AssignStaff(staffIDs)
	}
	return appt
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

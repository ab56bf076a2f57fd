package domain

import (
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
)

const (
	AggregateTypeFamily      = "RecurrenceFamily"
	AggregateTypeAppointment = "Appointment"

	RoutingKeyFamilyCreated       = "scheduling.family.created"
	RoutingKeyFamilyStopped       = "scheduling.family.stopped"
	RoutingKeyFamilyRestarted     = "scheduling.family.restarted"
	RoutingKeyFamilyDeleted       = "scheduling.family.deleted"
	RoutingKeyInstanceConfirmed   = "scheduling.instance.confirmed"
	RoutingKeyInstanceSkipped     = "scheduling.instance.skipped"
	RoutingKeyInstanceMoved       = "scheduling.instance.moved"
	RoutingKeyInstanceRescheduled = "scheduling.instance.rescheduled"
	RoutingKeyAppointmentCreated  = "scheduling.appointment.created"
	RoutingKeyAppointmentUpdated  = "scheduling.appointment.updated"
)

// FamilyCreated is emitted when an operator books the first occurrence.
type FamilyCreated struct {
	sharedDomain.BaseEvent
	FamilyID   uuid.UUID `json:"family_id"`
	ClientID   uuid.UUID `json:"client_id"`
	TemplateID uuid.UUID `json:"template_id"`
	Rule       string    `json:"rule"`
	FirstDate  time.Time `json:"first_date"`
}

// NewFamilyCreated creates a FamilyCreated event.
func NewFamilyCreated(f *Family) *FamilyCreated {
	var first time.Time
	if f.NextVisitDate() != nil {
		first = *f.NextVisitDate()
	}
	return &FamilyCreated{
		BaseEvent:  sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyFamilyCreated),
		FamilyID:   f.ID(),
		ClientID:   f.ClientID(),
		TemplateID: f.TemplateID(),
		Rule:       EncodeRule(f.Rule()),
		FirstDate:  first,
	}
}

// FamilyStoppedEvent is emitted when a family halts, either manually or by the
// missed-confirmation sweep.
type FamilyStoppedEvent struct {
	sharedDomain.BaseEvent
	FamilyID uuid.UUID `json:"family_id"`
	ClientID uuid.UUID `json:"client_id"`
	Reason   string    `json:"reason"`
}

// NewFamilyStopped creates a FamilyStoppedEvent.
func NewFamilyStopped(f *Family, reason string) *FamilyStoppedEvent {
	return &FamilyStoppedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyFamilyStopped),
		FamilyID:  f.ID(),
		ClientID:  f.ClientID(),
		Reason:    reason,
	}
}

// FamilyRestarted is emitted when a stopped family resumes at a new date.
type FamilyRestarted struct {
	sharedDomain.BaseEvent
	FamilyID uuid.UUID `json:"family_id"`
	ClientID uuid.UUID `json:"client_id"`
	NewDate  time.Time `json:"new_date"`
}

// NewFamilyRestarted creates a FamilyRestarted event.
func NewFamilyRestarted(f *Family) *FamilyRestarted {
	var date time.Time
	if f.NextVisitDate() != nil {
		date = *f.NextVisitDate()
	}
	return &FamilyRestarted{
		BaseEvent: sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyFamilyRestarted),
		FamilyID:  f.ID(),
		ClientID:  f.ClientID(),
		NewDate:   date,
	}
}

// FamilyDeleted is emitted when a stopped family is removed. Non-pending
// visits keep their history but lose the family reference.
type FamilyDeleted struct {
	sharedDomain.BaseEvent
	FamilyID uuid.UUID `json:"family_id"`
}

// NewFamilyDeleted creates a FamilyDeleted event.
func NewFamilyDeleted(familyID uuid.UUID) *FamilyDeleted {
	return &FamilyDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(familyID, AggregateTypeFamily, RoutingKeyFamilyDeleted),
		FamilyID:  familyID,
	}
}

// InstanceConfirmed is emitted when a pending occurrence is booked.
type InstanceConfirmed struct {
	sharedDomain.BaseEvent
	FamilyID      uuid.UUID `json:"family_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      uuid.UUID `json:"client_id"`
	Date          time.Time `json:"date"`
	Clock         string    `json:"clock"`
	NextDate      time.Time `json:"next_date"`
}

// NewInstanceConfirmed creates an InstanceConfirmed event.
func NewInstanceConfirmed(f *Family, a *Appointment, nextDate time.Time) *InstanceConfirmed {
	return &InstanceConfirmed{
		BaseEvent:     sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyInstanceConfirmed),
		FamilyID:      f.ID(),
		AppointmentID: a.ID(),
		ClientID:      a.ClientID(),
		Date:          a.Date(),
		Clock:         a.Clock(),
		NextDate:      nextDate,
	}
}

// InstanceSkipped is emitted when a pending occurrence is dropped.
type InstanceSkipped struct {
	sharedDomain.BaseEvent
	FamilyID      uuid.UUID `json:"family_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      uuid.UUID `json:"client_id"`
	SkippedDate   time.Time `json:"skipped_date"`
	NextDate      time.Time `json:"next_date"`
}

// NewInstanceSkipped creates an InstanceSkipped event.
func NewInstanceSkipped(f *Family, a *Appointment, nextDate time.Time) *InstanceSkipped {
	return &InstanceSkipped{
		BaseEvent:     sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyInstanceSkipped),
		FamilyID:      f.ID(),
		AppointmentID: a.ID(),
		ClientID:      a.ClientID(),
		SkippedDate:   a.Date(),
		NextDate:      nextDate,
	}
}

// InstanceMoved is emitted when a pending occurrence slides to a new
// date/time without being confirmed.
type InstanceMoved struct {
	sharedDomain.BaseEvent
	FamilyID      uuid.UUID `json:"family_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      uuid.UUID `json:"client_id"`
	NewDate       time.Time `json:"new_date"`
	NewClock      string    `json:"new_clock"`
}

// NewInstanceMoved creates an InstanceMoved event.
func NewInstanceMoved(f *Family, a *Appointment) *InstanceMoved {
	return &InstanceMoved{
		BaseEvent:     sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyInstanceMoved),
		FamilyID:      f.ID(),
		AppointmentID: a.ID(),
		ClientID:      a.ClientID(),
		NewDate:       a.Date(),
		NewClock:      a.Clock(),
	}
}

// InstanceRescheduled is emitted when a confirmed family visit is replaced
// through the generic reschedule flow and re-attached to its family.
type InstanceRescheduled struct {
	sharedDomain.BaseEvent
	FamilyID         uuid.UUID `json:"family_id"`
	OldAppointmentID uuid.UUID `json:"old_appointment_id"`
	NewAppointmentID uuid.UUID `json:"new_appointment_id"`
	NextDate         time.Time `json:"next_date"`
}

// NewInstanceRescheduled creates an InstanceRescheduled event.
func NewInstanceRescheduled(f *Family, oldID, newID uuid.UUID, nextDate time.Time) *InstanceRescheduled {
	return &InstanceRescheduled{
		BaseEvent:        sharedDomain.NewBaseEvent(f.ID(), AggregateTypeFamily, RoutingKeyInstanceRescheduled),
		FamilyID:         f.ID(),
		OldAppointmentID: oldID,
		NewAppointmentID: newID,
		NextDate:         nextDate,
	}
}

// AppointmentCreated is emitted when a conflict-checked visit is committed.
type AppointmentCreated struct {
	sharedDomain.BaseEvent
	AppointmentID uuid.UUID   `json:"appointment_id"`
	ClientID      uuid.UUID   `json:"client_id"`
	Date          time.Time   `json:"date"`
	Clock         string      `json:"clock"`
	StaffIDs      []uuid.UUID `json:"staff_ids"`
}

// NewAppointmentCreated creates an AppointmentCreated event.
func NewAppointmentCreated(a *Appointment) *AppointmentCreated {
	return &AppointmentCreated{
		BaseEvent:     sharedDomain.NewBaseEvent(a.ID(), AggregateTypeAppointment, RoutingKeyAppointmentCreated),
		AppointmentID: a.ID(),
		ClientID:      a.ClientID(),
		Date:          a.Date(),
		Clock:         a.Clock(),
		StaffIDs:      a.StaffIDs(),
	}
}

// AppointmentUpdated is emitted when a conflict-checked update is committed.
type AppointmentUpdated struct {
	sharedDomain.BaseEvent
	AppointmentID uuid.UUID   `json:"appointment_id"`
	Date          time.Time   `json:"date"`
	Clock         string      `json:"clock"`
	StaffIDs      []uuid.UUID `json:"staff_ids"`
}

// NewAppointmentUpdated creates an AppointmentUpdated event.
func NewAppointmentUpdated(a *Appointment) *AppointmentUpdated {
	return &AppointmentUpdated{
		BaseEvent:     sharedDomain.NewBaseEvent(a.ID(), AggregateTypeAppointment, RoutingKeyAppointmentUpdated),
		AppointmentID: a.ID(),
		Date:          a.Date(),
		Clock:         a.Clock(),
		StaffIDs:      a.StaffIDs(),
	}
}

package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
)

// AppointmentStatus is the lifecycle state of a single visit.
type AppointmentStatus string

const (
	// StatusAppointed is a confirmed, booked visit.
	StatusAppointed AppointmentStatus = "appointed"
	// StatusPendingConfirm is the single not-yet-confirmed occurrence of a family.
	StatusPendingConfirm AppointmentStatus = "recurring_unconfirmed"
	// StatusCancelled is a dropped occurrence.
	StatusCancelled AppointmentStatus = "cancel"
	// StatusRescheduleOld marks the superseded half of a reschedule pair.
	StatusRescheduleOld AppointmentStatus = "reschedule_old"
	// StatusRescheduleNew marks the replacement half of a reschedule pair.
	StatusRescheduleNew AppointmentStatus = "reschedule_new"
	// StatusDeleted is a soft-deleted visit.
	StatusDeleted AppointmentStatus = "deleted"
)

// IsValid checks if the status is a known lifecycle state.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusAppointed, StatusPendingConfirm, StatusCancelled, StatusRescheduleOld, StatusRescheduleNew, StatusDeleted:
		return true
	default:
		return false
	}
}

// BlocksSlot reports whether a visit in this status occupies its half-day
// slot for conflict purposes.
func (s AppointmentStatus) BlocksSlot() bool {
	return s != StatusCancelled && s != StatusDeleted
}

// ParseAppointmentStatus decodes a stored status. Unknown values degrade to
// appointed, which keeps corrupt rows visible and slot-blocking instead of
// silently freeing a booked slot.
func ParseAppointmentStatus(s string) AppointmentStatus {
	status := AppointmentStatus(s)
	if !status.IsValid() {
		return StatusAppointed
	}
	return status
}

// Slot is the half-day bucket used for staff-conflict detection.
type Slot string

const (
	SlotMorning   Slot = "AM"
	SlotAfternoon Slot = "PM"
)

// slotBoundaryMinutes is the AM/PM cutoff: 14:00 and later is afternoon.
const slotBoundaryMinutes = 14 * 60

// ParseClock validates an "HH:MM" wall-clock string and returns minutes
// since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, NewValidationError("time", fmt.Sprintf("%q is not HH:MM", clock))
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, NewValidationError("time", fmt.Sprintf("%q is not HH:MM", clock))
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, NewValidationError("time", fmt.Sprintf("%q is not HH:MM", clock))
	}
	return h*60 + m, nil
}

// SlotOf maps an "HH:MM" time to its half-day slot.
func SlotOf(clock string) (Slot, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	if minutes < slotBoundaryMinutes {
		return SlotMorning, nil
	}
	return SlotAfternoon, nil
}

// Appointment is a single dated visit, optionally owned by a recurrence
// family through a nullable back-reference. Ownership is logical: a visit
// outlives its family when the family is deleted.
type Appointment struct {
	sharedDomain.BaseEntity
	familyID    *uuid.UUID
	clientID    uuid.UUID
	templateID  uuid.UUID
	date        time.Time // always UTC midnight
	clock       string    // HH:MM
	status      AppointmentStatus
	staffIDs    []uuid.UUID
	lineage     string // grouping tag for the series-shift feature, orthogonal to families
	address     string
	priceCents  int64
	sizeSqm     int
	serviceType string
	notes       string
}

// NewAppointment creates a visit in the given status.
func NewAppointment(
	clientID, templateID uuid.UUID,
	familyID *uuid.UUID,
	date time.Time,
	clock string,
	status AppointmentStatus,
	tmpl Template,
) (*Appointment, error) {
	if date.IsZero() {
		return nil, NewValidationError("date", "date is required")
	}
	if _, err := ParseClock(clock); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	return &Appointment{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		familyID:    familyID,
		clientID:    clientID,
		templateID:  templateID,
		date:        NormalizeDate(date),
		clock:       clock,
		status:      status,
		staffIDs:    make([]uuid.UUID, 0),
		address:     tmpl.Address,
		priceCents:  tmpl.PriceCents,
		sizeSqm:     tmpl.SizeSqm,
		serviceType: tmpl.ServiceType,
	}, nil
}

// Getters
func (a *Appointment) FamilyID() *uuid.UUID       { return a.familyID }
func (a *Appointment) ClientID() uuid.UUID        { return a.clientID }
func (a *Appointment) TemplateID() uuid.UUID      { return a.templateID }
func (a *Appointment) Date() time.Time            { return a.date }
func (a *Appointment) Clock() string              { return a.clock }
func (a *Appointment) Status() AppointmentStatus  { return a.status }
func (a *Appointment) StaffIDs() []uuid.UUID      { return a.staffIDs }
func (a *Appointment) Lineage() string            { return a.lineage }
func (a *Appointment) Address() string            { return a.address }
func (a *Appointment) PriceCents() int64          { return a.priceCents }
func (a *Appointment) SizeSqm() int               { return a.sizeSqm }
func (a *Appointment) ServiceType() string        { return a.serviceType }
func (a *Appointment) Notes() string              { return a.notes }

// Slot returns the half-day bucket of the visit.
func (a *Appointment) Slot() Slot {
	slot, err := SlotOf(a.clock)
	if err != nil {
		// clock is validated on every write path; treat bad legacy data as AM
		return SlotMorning
	}
	return slot
}

// IsPending reports whether this is a family's unconfirmed occurrence.
func (a *Appointment) IsPending() bool {
	return a.status == StatusPendingConfirm
}

// BelongsToFamily reports whether the visit references the given family.
func (a *Appointment) BelongsToFamily(familyID uuid.UUID) bool {
	return a.familyID != nil && *a.familyID == familyID
}

// Confirm transitions the pending occurrence to a booked visit.
func (a *Appointment) Confirm() error {
	if a.status != StatusPendingConfirm {
		return ErrInstanceNotFound
	}
	a.status = StatusAppointed
	a.Touch()
	return nil
}

// Skip drops the pending occurrence without rescheduling it.
func (a *Appointment) Skip() error {
	if a.status != StatusPendingConfirm {
		return ErrInstanceNotFound
	}
	a.status = StatusCancelled
	a.Touch()
	return nil
}

// MoveTo slides the pending occurrence to a new date and time. The status is
// unchanged: moving means "this occurrence slides", not "this occurrence is
// done". An audit note records where the visit came from.
func (a *Appointment) MoveTo(date time.Time, clock string) error {
	if a.status != StatusPendingConfirm {
		return ErrInstanceNotFound
	}
	if date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if _, err := ParseClock(clock); err != nil {
		return err
	}

	a.AppendNote(fmt.Sprintf("moved from %s %s to %s %s",
		a.date.Format("2006-01-02"), a.clock, NormalizeDate(date).Format("2006-01-02"), clock))
	a.date = NormalizeDate(date)
	a.clock = clock
	a.Touch()
	return nil
}

// Reschedule overwrites the date of the occurrence before it is confirmed as
// part of a confirm-and-reschedule, keeping the current time.
func (a *Appointment) Reschedule(date time.Time) error {
	if date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	a.date = NormalizeDate(date)
	a.Touch()
	return nil
}

// AttachFamily links the visit to a family.
func (a *Appointment) AttachFamily(familyID uuid.UUID) {
	id := familyID
	a.familyID = &id
	a.Touch()
}

// DetachFamily clears the family back-reference, preserving visit history
// after its family is deleted.
func (a *Appointment) DetachFamily() {
	a.familyID = nil
	a.Touch()
}

// AssignStaff replaces the set of staff attached to the visit.
func (a *Appointment) AssignStaff(staffIDs []uuid.UUID) {
	a.staffIDs = append([]uuid.UUID(nil), staffIDs...)
	a.Touch()
}

// SetLineage tags the visit for the series-shift feature.
func (a *Appointment) SetLineage(lineage string) {
	a.lineage = lineage
	a.Touch()
}

// AppendNote adds a timestamped line to the visit's audit notes.
func (a *Appointment) AppendNote(note string) {
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("2006-01-02 15:04"), note)
	if a.notes == "" {
		a.notes = line
	} else {
		a.notes = a.notes + "\n" + line
	}
	a.Touch()
}

// CloneAsPending materializes a fresh unconfirmed occurrence at the target
// date, inheriting the visit's address, price, size, service and template but
// not its assigned staff: a new pending visit starts unstaffed.
func (a *Appointment) CloneAsPending(date time.Time) *Appointment {
	return &Appointment{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		familyID:    a.familyID,
		clientID:    a.clientID,
		templateID:  a.templateID,
		date:        NormalizeDate(date),
		clock:       a.clock,
		status:      StatusPendingConfirm,
		staffIDs:    make([]uuid.UUID, 0),
		lineage:     a.lineage,
		address:     a.address,
		priceCents:  a.priceCents,
		sizeSqm:     a.sizeSqm,
		serviceType: a.serviceType,
	}
}

// CloneAsPendingAt is CloneAsPending with an explicit visit time, used when a
// family restarts at a new time of day.
func (a *Appointment) CloneAsPendingAt(date time.Time, clock string) (*Appointment, error) {
	if _, err := ParseClock(clock); err != nil {
		return nil, err
	}
	fresh := a.CloneAsPending(date)
	fresh.clock = clock
	return fresh, nil
}

// Rebook updates the date and time of a visit through the generic edit flow.
// Unlike MoveTo it applies to any live status, and it leaves no audit note.
func (a *Appointment) Rebook(date time.Time, clock string) error {
	if a.status == StatusDeleted {
		return ErrInstanceNotFound
	}
	if date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if _, err := ParseClock(clock); err != nil {
		return err
	}
	a.date = NormalizeDate(date)
	a.clock = clock
	a.Touch()
	return nil
}

// RehydrateAppointment recreates a visit from persisted state.
func RehydrateAppointment(
	id uuid.UUID,
	familyID *uuid.UUID,
	clientID, templateID uuid.UUID,
	date time.Time,
	clock string,
	status AppointmentStatus,
	staffIDs []uuid.UUID,
	lineage string,
	address string,
	priceCents int64,
	sizeSqm int,
	serviceType string,
	notes string,
	createdAt, updatedAt time.Time,
) *Appointment {
	if staffIDs == nil {
		staffIDs = make([]uuid.UUID, 0)
	}
	return &Appointment{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		familyID:    familyID,
		clientID:    clientID,
		templateID:  templateID,
		date:        NormalizeDate(date),
		clock:       clock,
		status:      status,
		staffIDs:    staffIDs,
		lineage:     lineage,
		address:     address,
		priceCents:  priceCents,
		sizeSqm:     sizeSqm,
		serviceType: serviceType,
		notes:       notes,
	}
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
)

// FamilyStatus is the lifecycle state of a recurrence family.
type FamilyStatus string

const (
	FamilyActive  FamilyStatus = "active"
	FamilyStopped FamilyStatus = "stopped"
)

// ParseFamilyStatus decodes a stored status. Unknown values degrade to
// stopped so corrupt rows never project new visits.
func ParseFamilyStatus(s string) FamilyStatus {
	switch status := FamilyStatus(s); status {
	case FamilyActive, FamilyStopped:
		return status
	default:
		return FamilyStopped
	}
}

// Transition names the state-machine operations on a family. Each transition
// declares its required source state, so illegal transitions are rejected by
// the guard rather than by scattered status checks.
type Transition string

const (
	TransitionConfirm Transition = "confirm"
	TransitionSkip    Transition = "skip"
	TransitionMove    Transition = "move"
	TransitionStop    Transition = "stop"
	TransitionRestart Transition = "restart"
	TransitionDelete  Transition = "delete"
)

// transitionSources is the transition table: the family status each
// transition requires.
var transitionSources = map[Transition]FamilyStatus{
	TransitionConfirm: FamilyActive,
	TransitionSkip:    FamilyActive,
	TransitionMove:    FamilyActive,
	TransitionStop:    FamilyActive,
	TransitionRestart: FamilyStopped,
	TransitionDelete:  FamilyStopped,
}

// Family is the recurring-booking aggregate owning a chain of appointment
// instances under one recurrence rule. At most one owned instance is pending
// at any time, dated at NextVisitDate; the reconciler repairs that invariant
// after every transition.
type Family struct {
	sharedDomain.BaseAggregateRoot
	clientID      uuid.UUID
	templateID    uuid.UUID
	rule          Rule
	status        FamilyStatus
	nextVisitDate *time.Time
}

// NewFamily creates an active family anchored at its first visit date. The
// first pending instance is materialized by the caller alongside the family;
// no confirmed visit exists up front.
func NewFamily(clientID, templateID uuid.UUID, rule Rule, firstDate time.Time) (*Family, error) {
	if firstDate.IsZero() {
		return nil, NewValidationError("firstDate", "date is required")
	}

	first := NormalizeDate(firstDate)
	family := &Family{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		clientID:          clientID,
		templateID:        templateID,
		rule:              rule,
		status:            FamilyActive,
		nextVisitDate:     &first,
	}

	family.AddDomainEvent(NewFamilyCreated(family))

	return family, nil
}

// Getters
func (f *Family) ClientID() uuid.UUID       { return f.clientID }
func (f *Family) TemplateID() uuid.UUID     { return f.templateID }
func (f *Family) Rule() Rule                { return f.rule }
func (f *Family) Status() FamilyStatus      { return f.status }
func (f *Family) NextVisitDate() *time.Time { return f.nextVisitDate }

// IsActive reports whether the family still projects future visits.
func (f *Family) IsActive() bool { return f.status == FamilyActive }

// Guard checks a transition against the transition table.
func (f *Family) Guard(t Transition) error {
	required, ok := transitionSources[t]
	if !ok {
		return fmt.Errorf("unknown transition %q", t)
	}
	if f.status != required {
		if required == FamilyStopped {
			return ErrFamilyNotStopped
		}
		return ErrFamilyNotActive
	}
	return nil
}

// AdvanceFrom recomputes the projected next visit from the date an instance
// actually landed on. Moved-then-confirmed instances re-anchor the cadence
// here: the rule always cycles off the real date, not the original schedule.
func (f *Family) AdvanceFrom(anchor time.Time) time.Time {
	next := f.rule.NextDate(anchor)
	f.nextVisitDate = &next
	f.Touch()
	return next
}

// SetNextVisitDate pins the projection to an explicit date, used when a
// pending occurrence slides or a reschedule re-attaches.
func (f *Family) SetNextVisitDate(date time.Time) {
	d := NormalizeDate(date)
	f.nextVisitDate = &d
	f.Touch()
}

// Stop halts the family. New pending instances are no longer materialized.
func (f *Family) Stop(reason string) error {
	if err := f.Guard(TransitionStop); err != nil {
		return err
	}
	f.status = FamilyStopped
	f.nextVisitDate = nil
	f.Touch()
	f.AddDomainEvent(NewFamilyStopped(f, reason))
	return nil
}

// Restart reactivates a stopped family at a brand-new date.
func (f *Family) Restart(date time.Time) error {
	if err := f.Guard(TransitionRestart); err != nil {
		return err
	}
	if date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	d := NormalizeDate(date)
	f.status = FamilyActive
	f.nextVisitDate = &d
	f.Touch()
	f.AddDomainEvent(NewFamilyRestarted(f))
	return nil
}

// RehydrateFamily recreates a family from persisted state without generating
// events.
func RehydrateFamily(
	id uuid.UUID,
	clientID, templateID uuid.UUID,
	rule Rule,
	status FamilyStatus,
	nextVisitDate *time.Time,
	createdAt, updatedAt time.Time,
) *Family {
	if nextVisitDate != nil {
		d := NormalizeDate(*nextVisitDate)
		nextVisitDate = &d
	}
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Family{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(baseEntity, 0),
		clientID:          clientID,
		templateID:        templateID,
		rule:              rule,
		status:            status,
		nextVisitDate:     nextVisitDate,
	}
}

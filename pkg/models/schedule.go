package models

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // routine schedules resolve IANA zones on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Schedule is a time-based trigger registration derived from a routine branch of a published flow.
// Its ID is "{flow_code}:{branch_id}" so repeated publishes update instead of duplicating.
type Schedule struct {
	// ID uniquely identifies this schedule entry
	ID string `json:"id" validate:"required"`

	// FlowCode identifies the flow that this schedule fires
	FlowCode string `json:"flow_code" validate:"required"`

	// BranchID is the start-node branch carrying the cron expression
	BranchID string `json:"branch_id" validate:"required"`

	// VersionCode is the published version the schedule was registered for
	VersionCode string `json:"version_code"`

	// CronExpression uses standard 5-field cron format (minute hour day month weekday)
	CronExpression string `json:"cron_expression" validate:"required"`

	// Timezone is the IANA location the cron expression is read in; empty means UTC
	Timezone string `json:"timezone,omitempty" validate:"omitempty,timezone"`

	// NextDueAt is the precomputed next execution time
	NextDueAt time.Time `json:"next_due_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Active schedules are picked up by the external task scheduler
	Active bool `json:"active"`
}

var (
	// ErrInvalidSchedule is returned when schedule validation fails
	ErrInvalidSchedule = errors.New("invalid schedule configuration")
)

var scheduleValidator = validator.New(validator.WithRequiredStructEnabled())

// ScheduleID builds the idempotent schedule identifier for a flow branch.
func ScheduleID(flowCode, branchID string) string {
	return flowCode + ":" + branchID
}

// ParseCron parses a standard 5-field cron expression.
func ParseCron(expression string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	return parser.Parse(expression)
}

// LoadTimezone resolves an IANA location name. An empty name is UTC.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}

	return loc, nil
}

// NewSchedule creates an active Schedule with the next execution time calculated from now.
// The cron expression is evaluated in timezone; NextDueAt is stored in UTC.
func NewSchedule(flowCode, branchID, versionCode, cronExpression, timezone string, now time.Time) (*Schedule, error) {
	schedule := &Schedule{
		ID:             ScheduleID(flowCode, branchID),
		FlowCode:       flowCode,
		BranchID:       branchID,
		VersionCode:    versionCode,
		CronExpression: cronExpression,
		Timezone:       timezone,
		CreatedAt:      now,
		UpdatedAt:      now,
		Active:         true,
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	if err := schedule.calculateNextDueAt(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// calculateNextDueAt computes the next execution time after referenceTime.
func (s *Schedule) calculateNextDueAt(referenceTime time.Time) error {
	cronSchedule, err := ParseCron(s.CronExpression)
	if err != nil {
		return err
	}

	loc, err := LoadTimezone(s.Timezone)
	if err != nil {
		return err
	}

	s.NextDueAt = cronSchedule.Next(referenceTime.In(loc)).UTC()

	return nil
}

// IsDue checks if this schedule is due for execution at the given time.
func (s *Schedule) IsDue(now time.Time) bool {
	return s.Active && !s.NextDueAt.After(now)
}

// Validate performs validation on the schedule fields.
func (s *Schedule) Validate() error {
	if err := scheduleValidator.Struct(s); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}

	if _, err := ParseCron(s.CronExpression); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}

	return nil
}

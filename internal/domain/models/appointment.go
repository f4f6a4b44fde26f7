package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the lifecycle states an appointment can be reported in.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusUnknown   Status = "unknown"
)

// ParseStatus normalises a backend status value. Matching is case-insensitive.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	default:
		return StatusUnknown, false
	}
}

// UnmarshalJSON decodes any casing of a known status and maps everything else to StatusUnknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = StatusUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	*s, _ = ParseStatus(raw)
	return nil
}

// Identified is implemented by entities that can stand behind a Ref.
type Identified interface {
	Key() string
}

// Ref is a foreign-entity pointer as returned by the backend: either the
// expanded entity or only its identifier.
type Ref[T Identified] struct {
	id       string
	resolved *T
}

// Resolved wraps an expanded entity.
func Resolved[T Identified](v T) Ref[T] {
	return Ref[T]{id: v.Key(), resolved: &v}
}

// Unresolved wraps a bare identifier. An empty id means the reference was null.
func Unresolved[T Identified](id string) Ref[T] {
	return Ref[T]{id: id}
}

// ID returns the referenced identifier, whether or not the entity was expanded.
func (r Ref[T]) ID() string {
	return r.id
}

// Resolved returns the expanded entity when the backend populated it.
func (r Ref[T]) Resolved() (T, bool) {
	if r.resolved == nil {
		var zero T
		return zero, false
	}
	return *r.resolved, true
}

// UnmarshalJSON accepts an object, a bare identifier string or null.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*r = Ref[T]{}
	case trimmed[0] == '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("decode reference id: %w", err)
		}
		*r = Unresolved[T](id)
	case trimmed[0] == '{':
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("decode reference: %w", err)
		}
		*r = Resolved(v)
	default:
		return fmt.Errorf("decode reference: unexpected token %q", trimmed[:1])
	}
	return nil
}

// MarshalJSON writes the expanded entity, the bare id, or null.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.resolved != nil {
		return json.Marshal(*r.resolved)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

// DoctorRef is the expanded doctor projection.
type DoctorRef struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

func (d DoctorRef) Key() string { return d.ID }

// PatientRef is the expanded patient (user) projection.
type PatientRef struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
}

func (p PatientRef) Key() string { return p.ID }

type (
	DoctorLink  = Ref[DoctorRef]
	PatientLink = Ref[PatientRef]
)

// Appointment mirrors one record of the backend report payload.
type Appointment struct {
	ID      string              `json:"_id"`
	Patient PatientLink         `json:"userId"`
	Doctor  DoctorLink          `json:"doctorId"`
	Date    time.Time           `json:"date"`
	Phone   string              `json:"phone"`
	Reason  string              `json:"reason"`
	Price   decimal.NullDecimal `json:"appointmentprice"`
	Status  Status              `json:"status"`
}

// Revenue is the amount the record contributes to totals; a missing price counts as zero.
func (a Appointment) Revenue() decimal.Decimal {
	if !a.Price.Valid {
		return decimal.Zero
	}
	return a.Price.Decimal
}

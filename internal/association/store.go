// internal/association/store.go
package association

import (
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// decimalPattern is plain decimal notation with an optional exponent.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Store holds the current draft and the errors from the last validation.
// Every write replaces the draft value as a whole; untouched fields keep
// their previous values, including the backing array of Members.
type Store struct {
	draft  Draft
	errors ValidationErrors
}

// NewStore creates a store holding a fresh draft.
func NewStore() *Store {
	return &Store{
		draft:  NewDraft(),
		errors: ValidationErrors{},
	}
}

// Draft returns the current draft.
func (s *Store) Draft() Draft {
	return s.draft
}

// Errors returns a copy of the errors written by the last submit attempt.
func (s *Store) Errors() ValidationErrors {
	return maps.Clone(s.errors)
}

// EditField applies a single field edit. Unknown fields are ignored and
// the operation never fails.
func (s *Store) EditField(field, raw string) {
	next := s.draft
	switch field {
	case FieldName:
		next.Name = raw
	case FieldDescription:
		next.Description = raw
	case FieldContributionAmount:
		next.ContributionAmount = parseAmount(raw)
	case FieldContributionFrequency:
		f, ok := ParseFrequency(raw)
		if !ok {
			return
		}
		next.ContributionFrequency = f
	default:
		return
	}
	s.draft = next
}

func (s *Store) setMembers(members []Member) {
	next := s.draft
	next.Members = members
	s.draft = next
}

func (s *Store) setErrors(errs ValidationErrors) {
	s.errors = maps.Clone(errs)
}

// Reset discards the draft and any errors.
func (s *Store) Reset() {
	s.draft = NewDraft()
	s.errors = ValidationErrors{}
}

// parseAmount coerces raw input to a non-negative amount, falling back to 0.
func parseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if !decimalPattern.MatchString(raw) {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

package domain

import "iter"

// EmployeeRecord is the normalized attribute set of one employee row.
// Hours and Rate are kept as the raw cell text; numeric parsing happens
// when the payout report is built.
type EmployeeRecord struct {
	Email      string `json:"email" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department"`
	Hours      string `json:"hours"`
	Rate       string `json:"rate"`
}

// RecordSet maps employee IDs to records and remembers insertion order.
//
// Setting an ID that is already present replaces its record but keeps the
// position of the first insertion, so the last row for a duplicated ID wins
// while report order follows where the ID first appeared.
type RecordSet struct {
	order   []string
	records map[string]EmployeeRecord
}

// NewRecordSet creates an empty record set
func NewRecordSet() *RecordSet {
	return &RecordSet{records: make(map[string]EmployeeRecord)}
}

// Set stores rec under id, overwriting any earlier record for the same id.
func (s *RecordSet) Set(id string, rec EmployeeRecord) {
	if _, exists := s.records[id]; !exists {
		s.order = append(s.order, id)
	}
	s.records[id] = rec
}

// Get returns the record stored under id.
func (s *RecordSet) Get(id string) (EmployeeRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Len returns the number of distinct IDs.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// IDs returns the IDs in insertion order.
func (s *RecordSet) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All iterates over id/record pairs in insertion order.
func (s *RecordSet) All() iter.Seq2[string, EmployeeRecord] {
	return func(yield func(string, EmployeeRecord) bool) {
		if s == nil {
			return
		}
		for _, id := range s.order {
			if !yield(id, s.records[id]) {
				return
			}
		}
	}
}

// Equal reports whether both sets hold the same records in the same order.
func (s *RecordSet) Equal(other *RecordSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for i, id := range s.order {
		if other.order[i] != id || other.records[id] != s.records[id] {
			return false
		}
	}
	return true
}

// internal/association/selector.go
package association

import (
	"slices"
	"strings"
)

const (
	emptyMessageNoMatch   = "No users found"
	emptyMessageNoMembers = "No available users"
)

// Selector drives the search-and-select dropdown that builds the member
// list of the draft held by store. The candidate pool is never modified.
type Selector struct {
	store        *Store
	pool         []Member
	searchTerm   string
	dropdownOpen bool
}

// NewSelector creates a selector over a copy of pool.
func NewSelector(store *Store, pool []Member) *Selector {
	return &Selector{
		store: store,
		pool:  slices.Clone(pool),
	}
}

// SearchTerm returns the current search text.
func (s *Selector) SearchTerm() string {
	return s.searchTerm
}

// DropdownOpen reports whether the candidate dropdown is shown.
func (s *Selector) DropdownOpen() bool {
	return s.dropdownOpen
}

// SetSearchTerm replaces the search text verbatim.
func (s *Selector) SetSearchTerm(term string) {
	s.searchTerm = term
}

// ToggleDropdown opens or closes the dropdown. Closing keeps the search text.
func (s *Selector) ToggleDropdown() {
	s.dropdownOpen = !s.dropdownOpen
}

// FilteredCandidates returns the pool members whose username contains the
// search text, ignoring case, and who are not selected yet. Pool order is
// preserved.
func (s *Selector) FilteredCandidates() []Member {
	draft := s.store.Draft()
	term := strings.ToLower(s.searchTerm)

	filtered := make([]Member, 0, len(s.pool))
	for _, m := range s.pool {
		if !strings.Contains(strings.ToLower(m.Username), term) {
			continue
		}
		if draft.HasMember(m.ID) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// EmptyMessage is the text shown when FilteredCandidates is empty.
func (s *Selector) EmptyMessage() string {
	if s.searchTerm != "" {
		return emptyMessageNoMatch
	}
	return emptyMessageNoMembers
}

// Candidate looks up a pool member by id.
func (s *Selector) Candidate(id string) (Member, bool) {
	for _, m := range s.pool {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Selected reports whether id is already in the draft.
func (s *Selector) Selected(id string) bool {
	return s.store.Draft().HasMember(id)
}

// AddMember appends m to the draft unless a member with the same id is
// already selected. Either way the search text is cleared and the dropdown
// closed.
func (s *Selector) AddMember(m Member) {
	draft := s.store.Draft()
	if !draft.HasMember(m.ID) {
		members := make([]Member, 0, len(draft.Members)+1)
		members = append(members, draft.Members...)
		members = append(members, m)
		s.store.setMembers(members)
	}
	s.dropdownOpen = false
	s.searchTerm = ""
}

// RemoveMember drops the member with the given id. Absent ids are ignored.
func (s *Selector) RemoveMember(id string) {
	draft := s.store.Draft()
	if !draft.HasMember(id) {
		return
	}
	members := make([]Member, 0, len(draft.Members)-1)
	for _, m := range draft.Members {
		if m.ID != id {
			members = append(members, m)
		}
	}
	s.store.setMembers(members)
}

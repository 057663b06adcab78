// internal/association/service.go
package association

import (
	"context"
)

// Directory supplies the members that can be selected.
type Directory interface {
	ListMembers(ctx context.Context) ([]Member, error)
}

// Submitter receives a draft that passed validation.
type Submitter interface {
	SubmitAssociation(ctx context.Context, actor Actor, draft Draft) error
}

// Workflow defines the create-association form workflow. Implementations
// are not safe for concurrent use; callers feed it one event at a time.
type Workflow interface {
	Draft() Draft
	Errors() ValidationErrors
	EditField(field, raw string)
	SetSearchTerm(term string)
	ToggleDropdown()
	FilteredCandidates() []Member
	Candidate(id string) (Member, bool)
	AddMember(m Member)
	RemoveMember(id string)
	Submit(ctx context.Context, actor Actor) (ValidationErrors, error)
	View() View
}

// FrequencyOption is one entry of the frequency select.
type FrequencyOption struct {
	Value Frequency `json:"value"`
	Label string    `json:"label"`
}

// View is everything a presentation layer needs for one render.
type View struct {
	Draft        Draft             `json:"draft"`
	Errors       ValidationErrors  `json:"errors"`
	SearchTerm   string            `json:"search_term"`
	DropdownOpen bool              `json:"dropdown_open"`
	Candidates   []Member          `json:"candidates"`
	EmptyMessage string            `json:"empty_message,omitempty"`
	Frequencies  []FrequencyOption `json:"frequencies"`
}

// internal/association/domain.go
package association

// Member represents a user that can be added to an association.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Frequency is the cadence at which members pay into the association.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

var frequencyLabels = map[Frequency]string{
	FrequencyDaily:   "Daily",
	FrequencyWeekly:  "Weekly",
	FrequencyMonthly: "Monthly",
	FrequencyYearly:  "Yearly",
}

// Frequencies returns every contribution frequency in display order.
func Frequencies() []Frequency {
	return []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}
}

// ParseFrequency reports whether s names a known frequency.
func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(s)
	_, ok := frequencyLabels[f]
	return f, ok
}

// Label returns the human readable name of the frequency.
func (f Frequency) Label() string {
	return frequencyLabels[f]
}

// Field keys accepted by Store.EditField.
const (
	FieldName                  = "name"
	FieldDescription           = "description"
	FieldContributionAmount    = "contributionAmount"
	FieldContributionFrequency = "contributionFrequency"
)

// Validation error keys.
const (
	ErrorKeyName    = "name"
	ErrorKeyAmount  = "amount"
	ErrorKeyMembers = "members"
)

// Draft is the in-progress association being composed.
type Draft struct {
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	ContributionAmount    float64   `json:"contributionAmount"`
	ContributionFrequency Frequency `json:"contributionFrequency"`
	Members               []Member  `json:"members"`
}

// NewDraft returns the empty draft a workflow starts from.
func NewDraft() Draft {
	return Draft{
		ContributionFrequency: FrequencyWeekly,
		Members:               []Member{},
	}
}

// HasMember reports whether a member with the given id is already selected.
func (d Draft) HasMember(id string) bool {
	for _, m := range d.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ValidationErrors maps a field key to a message. An empty map means the
// draft can be submitted.
type ValidationErrors map[string]string

// Valid reports whether no rule failed.
func (e ValidationErrors) Valid() bool {
	return len(e) == 0
}

// Actor is the user creating the association. It is passed to the
// submitter explicitly; the workflow never looks it up.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

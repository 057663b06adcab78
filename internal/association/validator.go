// internal/association/validator.go
package association

const (
	msgNameRequired    = "Association name is required"
	msgAmountPositive  = "Amount must be greater than 0"
	msgMembersRequired = "At least one member is required"
)

// Validate checks a draft before submission. Every rule is evaluated and
// only failed rules appear in the result. The name is not trimmed, so a
// name made of spaces passes.
func Validate(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if d.Name == "" {
		errs[ErrorKeyName] = msgNameRequired
	}
	if !(d.ContributionAmount > 0) {
		errs[ErrorKeyAmount] = msgAmountPositive
	}
	if len(d.Members) == 0 {
		errs[ErrorKeyMembers] = msgMembersRequired
	}
	return errs
}

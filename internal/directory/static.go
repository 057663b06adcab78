// internal/directory/static.go
package directory

import (
	"context"
	"slices"

	"njangi/internal/association"
)

// Static serves a fixed list of members.
type Static struct {
	members []association.Member
}

// NewStatic creates a directory over a copy of members.
func NewStatic(members []association.Member) *Static {
	return &Static{members: slices.Clone(members)}
}

// DevMembers is the seed list used when no user directory is configured.
func DevMembers() []association.Member {
	return []association.Member{
		{ID: "1", Username: "john_doe"},
		{ID: "2", Username: "jane_smith"},
		{ID: "3", Username: "mike_johnson"},
		{ID: "4", Username: "sarah_williams"},
	}
}

// ListMembers returns the configured members in order.
func (s *Static) ListMembers(ctx context.Context) ([]association.Member, error) {
	return slices.Clone(s.members), nil
}

package models

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski trip").
	Name string

	// Currency is the ISO 4217 code all of the group's amounts are kept in.
	Currency string

	// Members is the group roster in the order members joined.
	// The order is the order balances are reported in.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is one participant of a group.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// GroupID is the group this member belongs to.
	GroupID string

	// Name is the display name shown in balances and settlement statements.
	Name string

	// UserID optionally links the member to an account of the hosted auth provider.
	UserID string

	// JoinedAt is the Unix timestamp when the member was added.
	JoinedAt int64
}

// HasMember reports whether memberID is on the group roster.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

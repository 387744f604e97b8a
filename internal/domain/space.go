package domain

import "time"

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	return r == MemberRoleOwner || r == MemberRoleMember
}

// Space is the tenancy boundary every financial record belongs to.
type Space struct {
	ID        string
	Name      string
	Role      MemberRole // role of the user the space was loaded for
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member links a user to a space.
type Member struct {
	SpaceID   string
	UserID    string
	Email     string
	Name      string
	Role      MemberRole
	CreatedAt time.Time
}

// Scope identifies the caller and the space a request is confined to.
type Scope struct {
	UserID  string
	SpaceID string
}

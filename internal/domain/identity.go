package domain

import "github.com/google/uuid"

// Role classifies what an authenticated user may do beyond acting on their
// own comments.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Elevated reports whether the role may edit or delete other users' comments.
func (r Role) Elevated() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Identity is the resolved form of a verified credential, shared by the
// realtime and REST transports.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Role   Role      `json:"role"`
}

// CanModify reports whether the identity may mutate a comment owned by
// authorID.
func (i Identity) CanModify(authorID uuid.UUID) bool {
	return i.UserID == authorID || i.Role.Elevated()
}

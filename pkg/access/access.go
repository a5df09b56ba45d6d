// Package access decides administrator privilege for the storefront.
// Every privileged operation — payment confirmation, delivery
// marking, bans — goes through the same check.
package access

// Actor identifies who issued a command and in what context. The chat
// glue fills it from the inbound message: GuildID is empty for direct
// messages, RoleIDs are the actor's roles in that guild, and
// PlatformAdmin reflects an administrator permission granted by the
// hosting platform itself.
type Actor struct {
	UserID        int64
	GuildID       string
	RoleIDs       []string
	PlatformAdmin bool
}

type Policy struct {
	adminRoleID string
}

func NewPolicy(adminRoleID string) *Policy {
	return &Policy{adminRoleID: adminRoleID}
}

// IsAdmin reports whether the actor holds administrator privilege.
// Role checks require a guild context: in a direct message nobody is
// an admin, no matter what roles they hold elsewhere.
func (p *Policy) IsAdmin(actor Actor) bool {
	if actor.GuildID == "" {
		return false
	}

	if p.adminRoleID != "" {
		for _, role := range actor.RoleIDs {
			if role == p.adminRoleID {
				return true
			}
		}
	}

	return actor.PlatformAdmin
}

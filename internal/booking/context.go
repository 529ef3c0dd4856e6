package booking

// Role is the caller class as reported by the session layer.
type Role string

const (
	RoleNone   Role = ""       // anonymous, no token at all
	RoleGuest  Role = "guest"  // anonymous checkout with a guest token
	RoleMember Role = "member" // authenticated member session
)

// RoleContext is the caller's authorization state.  It is produced by the
// session layer (token issuance and verification happen there) and is
// consumed read-only by the engine: the engine never issues or validates
// tokens itself, it only checks the flags the session layer derived.
type RoleContext struct {
	Role Role

	// UserID is the member identifier, set when Role is RoleMember.
	UserID string
	// Email is the contact supplied at guest checkout, set for RoleGuest.
	Email string

	// GuestTokenValid is true when a guest token was presented and passed
	// verification.  MemberSessionValid is the member equivalent.
	GuestTokenValid    bool
	MemberSessionValid bool
}

// CustomerID derives the identity stored on orders from the role context.
// The prefixes keep guest and member identities from colliding.
func (rc RoleContext) CustomerID() string {
	switch rc.Role {
	case RoleGuest:
		return "GUEST-" + rc.Email
	case RoleMember:
		return "MEMBER-" + rc.UserID
	}
	return ""
}

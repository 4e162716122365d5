package models

// Role classifies a roster member into a support tier. Tiers carry an
// explicit total order so ranking never falls back to string comparison.
type Role string

const (
	RoleL1  Role = "L1"
	RoleL2  Role = "L2"
	RoleL3  Role = "L3"
	RoleSME Role = "SME"
)

// DefaultRole is applied when a member is created without a role.
const DefaultRole = RoleL2

var roleTiers = map[Role]int{
	RoleL1:  1,
	RoleL2:  2,
	RoleL3:  3,
	RoleSME: 4,
}

func (r Role) Valid() bool {
	_, ok := roleTiers[r]
	return ok
}

// Tier returns the position in the role order (L1 < L2 < L3 < SME).
// Unknown roles sort below L1.
func (r Role) Tier() int {
	return roleTiers[r]
}

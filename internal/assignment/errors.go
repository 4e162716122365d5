package assignment

import "errors"

// ErrNoEligibleMember signals that the group had no active member on shift
// at decision time. It is a recorded outcome, not a fault: a success=false
// history row is appended before it is returned.
var ErrNoEligibleMember = errors.New("no eligible member")

package types

import "github.com/google/uuid"

// Principal is the caller identity resolved by the auth middleware and
// passed by value into every operation. A nil UID means the caller is
// anonymous; Admin is only ever true for an authenticated caller.
type Principal struct {
	UID   *uuid.UUID
	Admin bool
}

func Anonymous() Principal {
	return Principal{}
}

func Authenticated(uid uuid.UUID, admin bool) Principal {
	return Principal{UID: &uid, Admin: admin}
}

func (p Principal) Authenticated() bool {
	return p.UID != nil
}

package authz

import "fmt"

// AccessDeniedError is the expected outcome of a failed authorization
// check. It is a normal return value, not a defect: handlers translate
// it into a user-facing "insufficient permission" message naming the
// capability that was required.
type AccessDeniedError struct {
	Capability Capability
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: requires %s", e.Capability)
}

// Authorize checks a single capability for the principal. It returns
// nil when granted, *AccessDeniedError when denied, and
// ErrUnknownCapability for names outside the closed enumeration.
func Authorize(p *Principal, c Capability) error {
	ok, err := HasCapability(p, c)
	if err != nil {
		return err
	}
	if !ok {
		return &AccessDeniedError{Capability: c}
	}
	return nil
}

// Guard runs op only when the principal holds the capability. When the
// check fails op is never invoked and the authorization error is
// returned unchanged; otherwise op runs exactly once and its error is
// passed through.
func Guard(p *Principal, c Capability, op func() error) error {
	if err := Authorize(p, c); err != nil {
		return err
	}
	return op()
}

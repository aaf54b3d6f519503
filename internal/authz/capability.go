package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Capability is a single named permission flag.
type Capability string

// The closed capability enumeration. Every role template covers all of
// these; a set derived for any principal always carries an explicit
// boolean for each one.
const (
	CapCasesView       Capability = "cases.view"
	CapCasesManage     Capability = "cases.manage"
	CapReportsView     Capability = "reports.view"
	CapReportsGenerate Capability = "reports.generate"
	CapUsersView       Capability = "users.view"
	CapUsersManage     Capability = "users.manage"
	CapMessagesView    Capability = "messages.view"
	CapSettingsManage  Capability = "settings.manage"
)

// ErrUnknownCapability indicates a capability name outside the closed
// enumeration. This is a programming error at the call site, never a
// deny decision.
var ErrUnknownCapability = errors.New("authz: unknown capability")

var capabilities = []Capability{
	CapCasesView,
	CapCasesManage,
	CapReportsView,
	CapReportsGenerate,
	CapUsersView,
	CapUsersManage,
	CapMessagesView,
	CapSettingsManage,
}

var capabilityIndex = func() map[Capability]struct{} {
	idx := make(map[Capability]struct{}, len(capabilities))
	for _, c := range capabilities {
		idx[c] = struct{}{}
	}
	return idx
}()

// Capabilities returns the closed enumeration in stable order.
func Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// ParseCapability validates a capability name against the closed set.
func ParseCapability(name string) (Capability, error) {
	c := Capability(strings.TrimSpace(strings.ToLower(name)))
	if _, ok := capabilityIndex[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return c, nil
}

// Known reports whether c belongs to the closed enumeration.
func (c Capability) Known() bool {
	_, ok := capabilityIndex[c]
	return ok
}

func (c Capability) String() string {
	return string(c)
}

package allocate

import (
	"errors"
	"fmt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidBasePort is returned when the base port is outside 1-65535.
	ErrInvalidBasePort = errors.New("base port must be between 1 and 65535")

	// ErrPortsExhausted is returned when no free port is found between the
	// base port and the top of the valid range.
	ErrPortsExhausted = errors.New("no free port found at or above base port")
)

// maxPort is the top of the valid TCP port range. The probe never walks
// past it.
const maxPort = 65535

// =============================================================================
// Port Set
// =============================================================================

// PortSet is a set of ports considered in use. Membership from any
// inventory source marks the port busy.
type PortSet map[int]bool

// NewPortSet builds a PortSet from one or more inventory snapshots,
// OR-merging their contents. A port reported by either source is treated
// as in use, even if the sources disagree - the resolver is conservative
// and may skip a port one tool reports as stale, but it never returns a
// port either tool considers busy.
func NewPortSet(sources ...[]int) PortSet {
	set := make(PortSet)
	for _, ports := range sources {
		for _, p := range ports {
			set[p] = true
		}
	}
	return set
}

// Claim marks a port as in use. Callers claim each resolved port so that
// later resolutions in the same session do not hand out the same port
// before the orchestrator binds it.
func (s PortSet) Claim(port int) {
	s[port] = true
}

// =============================================================================
// Port Resolution
// =============================================================================

// ResolvePort returns the first port >= base that is not in used,
// incrementing by one per probe. The search stops at port 65535; if every
// port from base up is busy, a typed exhaustion error is returned instead
// of probing past the valid range.
//
// Same snapshot caveat as ResolveName: free means free at the moment the
// inventory was taken.
//
// Example:
//
//	ResolvePort(3001, NewPortSet([]int{3001}))         // returns 3002
//	ResolvePort(3001, NewPortSet([]int{3001, 3002}))   // returns 3003
func ResolvePort(base int, used PortSet) (int, error) {
	if base < 1 || base > maxPort {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBasePort, base)
	}

	for port := base; port <= maxPort; port++ {
		if !used[port] {
			return port, nil
		}
	}

	return 0, fmt.Errorf("%w: base %d", ErrPortsExhausted, base)
}

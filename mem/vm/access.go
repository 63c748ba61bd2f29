package vm

import "fmt"

// AccessKind tells if an access reads or writes the page.
type AccessKind int

// A list of all access kinds.
const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// ParseAccessKind converts "read"/"r" or "write"/"w" into an AccessKind.
func ParseAccessKind(s string) (AccessKind, error) {
	switch s {
	case "read", "r", "R", "":
		return AccessRead, nil
	case "write", "w", "W":
		return AccessWrite, nil
	default:
		return AccessRead, fmt.Errorf("unknown access kind %q", s)
	}
}

// MarshalText encodes the kind as its name.
func (k AccessKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name accepted by ParseAccessKind.
func (k *AccessKind) UnmarshalText(text []byte) error {
	kind, err := ParseAccessKind(string(text))
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// Outcome classifies the result of an access.
type Outcome int

// A list of all outcomes.
const (
	// OutcomeHit means the page was resident and found in the TLB.
	OutcomeHit Outcome = iota

	// OutcomeMiss means the page was resident but the translation had to be
	// fetched from the page table.
	OutcomeMiss

	// OutcomeFault means the page was not resident or did not exist.
	OutcomeFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeFault:
		return "fault"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as its name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// FaultReason explains why an access faulted.
type FaultReason int

// A list of all fault reasons.
const (
	FaultNone FaultReason = iota
	FaultNotResident
	FaultNoSuchPage
)

func (r FaultReason) String() string {
	switch r {
	case FaultNone:
		return "none"
	case FaultNotResident:
		return "not resident"
	case FaultNoSuchPage:
		return "no such page"
	default:
		return fmt.Sprintf("FaultReason(%d)", int(r))
	}
}

// MarshalText encodes the reason as its name.
func (r FaultReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// AccessResult describes what happened to a single access.
type AccessResult struct {
	// Seq is a logical timestamp, incremented for every access.
	Seq    uint64
	PID    PID
	VAddr  uint64
	VPN    uint64
	Offset uint64
	Kind   AccessKind

	Outcome Outcome
	Reason  FaultReason

	// Translated is true when PAddr and Frame hold a valid translation. A
	// NotResident fault is translated once it has been served.
	Translated bool
	PAddr      uint64
	Frame      uint64

	// Evicted is true when serving the access reclaimed the frame of Victim.
	Evicted bool
	Victim  Page
}

func (r AccessResult) String() string {
	switch {
	case r.Outcome == OutcomeFault && r.Reason == FaultNoSuchPage:
		return fmt.Sprintf("PID %d: page fault, no page table entry for page %d",
			r.PID, r.VPN)
	case r.Outcome == OutcomeFault && r.Evicted:
		return fmt.Sprintf(
			"PID %d: page fault on page %d, evicted PID %d page %d, "+
				"loaded into frame %d (VA 0x%x -> PA 0x%x)",
			r.PID, r.VPN, r.Victim.PID, r.Victim.VPN, r.Frame, r.VAddr, r.PAddr)
	case r.Outcome == OutcomeFault:
		return fmt.Sprintf(
			"PID %d: page fault on page %d, loaded into frame %d "+
				"(VA 0x%x -> PA 0x%x)",
			r.PID, r.VPN, r.Frame, r.VAddr, r.PAddr)
	default:
		return fmt.Sprintf("PID %d: TLB %s, VA 0x%x -> PA 0x%x",
			r.PID, r.Outcome, r.VAddr, r.PAddr)
	}
}

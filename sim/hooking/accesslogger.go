package hooking

import (
	"log"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// LogHookBase provides the common logic for all hooks that write into a
// logger.
type LogHookBase struct {
	*log.Logger
}

// AccessLogger is a hook that prints every access, eviction and
// reconfiguration.
type AccessLogger struct {
	LogHookBase

	faultsOnly bool
}

// NewAccessLogger returns a new AccessLogger which will write into the
// logger.
func NewAccessLogger(logger *log.Logger) *AccessLogger {
	h := new(AccessLogger)
	h.Logger = logger

	return h
}

// FaultsOnly makes the logger skip hits and misses.
func (h *AccessLogger) FaultsOnly() *AccessLogger {
	h.faultsOnly = true
	return h
}

// Func writes the access information into the logger.
func (h *AccessLogger) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosAccess:
		r, ok := ctx.Item.(vm.AccessResult)
		if !ok {
			return
		}

		if h.faultsOnly && r.Outcome != vm.OutcomeFault {
			return
		}

		h.Printf("#%d %s", r.Seq, r)
	case HookPosEvict:
		p, ok := ctx.Item.(vm.Page)
		if !ok {
			return
		}

		h.Printf("evict PID %d page %d from frame %d, modified=%t",
			p.PID, p.VPN, p.Frame, p.Modified)
	case HookPosConfig:
		h.Printf("config: %v", ctx.Item)
	}
}

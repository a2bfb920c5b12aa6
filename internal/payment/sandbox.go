package payment

import (
	"context"
	"sync"

	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
)

// SandboxGateway approves every authorization and keeps holds in memory.
// It stands in for a real processor adapter in local deployments and in
// the binaries' default wiring.
type SandboxGateway struct {
	mu    sync.Mutex
	holds map[string]float64
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{holds: make(map[string]float64)}
}

func (g *SandboxGateway) Authorize(ctx context.Context, bookingID uuid.UUID, amount float64) (string, error) {
	ref := uuid.NewString()
	g.mu.Lock()
	g.holds[ref] = amount
	g.mu.Unlock()
	return ref, nil
}

func (g *SandboxGateway) Capture(ctx context.Context, ref string, amount float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	held, ok := g.holds[ref]
	if !ok {
		return 0, &domain.CaptureFailedError{Reason: "unknown authorization reference"}
	}
	if amount > held {
		amount = held
	}
	delete(g.holds, ref)
	return amount, nil
}

func (g *SandboxGateway) Void(ctx context.Context, ref string) error {
	g.mu.Lock()
	delete(g.holds, ref)
	g.mu.Unlock()
	return nil
}

var _ Gateway = (*SandboxGateway)(nil)

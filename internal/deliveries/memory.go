package deliveries

import (
	"context"
	"sync"
	"time"

	"fygaro-bridge/internal/logger"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const sweepInterval = 10 * time.Minute

type entry struct {
	reference string
	status    Status
	note      string
	createdAt time.Time
	claimedAt time.Time
}

// MemoryRepository is the single-instance ledger. Entries older than the
// TTL are treated as unseen and evicted by the sweeper.
type MemoryRepository struct {
	mu    sync.Mutex
	data  map[string]*entry
	ttl   time.Duration
	clock clockz.Clock
}

func NewMemoryRepository(ttl time.Duration, clock clockz.Clock) *MemoryRepository {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &MemoryRepository{
		data:  make(map[string]*entry),
		ttl:   ttl,
		clock: clock,
	}
}

func (m *MemoryRepository) Claim(_ context.Context, key, reference string) (ClaimResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if e, ok := m.data[key]; ok && now.Sub(e.createdAt) <= m.ttl {
		if e.status == StatusProcessed {
			return AlreadyProcessed, nil
		}
		if now.Sub(e.claimedAt) < ClaimLease {
			return InFlight, nil
		}
		e.claimedAt = now
		return Claimed, nil
	}

	m.data[key] = &entry{reference: reference, status: StatusProcessing, createdAt: now, claimedAt: now}
	return Claimed, nil
}

func (m *MemoryRepository) MarkProcessed(_ context.Context, key, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return ErrUnknownDelivery
	}
	e.status = StatusProcessed
	e.note = note
	return nil
}

func (m *MemoryRepository) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.data[key]; ok && e.status == StatusProcessing {
		delete(m.data, key)
	}
	return nil
}

// StartSweeper evicts expired entries until ctx is cancelled.
func (m *MemoryRepository) StartSweeper(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.clock.After(sweepInterval):
				m.sweep()
			}
		}
	}()
}

func (m *MemoryRepository) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	evicted := 0
	for key, e := range m.data {
		if now.Sub(e.createdAt) > m.ttl {
			delete(m.data, key)
			evicted++
		}
	}

	if evicted > 0 {
		logger.L().Debug("evicted expired webhook deliveries", zap.Int("count", evicted))
	}
	return evicted
}

func (m *MemoryRepository) status(key string) (Status, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", "", false
	}
	return e.status, e.note, true
}

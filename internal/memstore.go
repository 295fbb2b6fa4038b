package internal

import (
	"context"
	"fmt"
	"sync"

	"checkout/entity"
	"checkout/services"
)

// MemoryStore is an in-memory Database for mongo-disabled deployments
// and tests. Snapshots live only for the process lifetime, which is
// enough to survive a frame remount but not a server restart.
type MemoryStore struct {
	mu            sync.Mutex
	snapshots     map[string]entity.PaymentSessionSnapshot
	confirmations []entity.ConfirmRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]entity.PaymentSessionSnapshot),
	}
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, snapshot *entity.PaymentSessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.OrderId] = *snapshot
	return nil
}

func (m *MemoryStore) GetSnapshot(_ context.Context, orderId string) (*entity.PaymentSessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[orderId]
	if !ok {
		return nil, fmt.Errorf("no snapshot for order %s", orderId)
	}
	return &snapshot, nil
}

func (m *MemoryStore) DeleteSnapshot(_ context.Context, orderId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, orderId)
	return nil
}

func (m *MemoryStore) SaveConfirmation(_ context.Context, record *entity.ConfirmRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, *record)
	return nil
}

// Confirmations returns a copy of the stored confirmation records.
func (m *MemoryStore) Confirmations() []entity.ConfirmRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]entity.ConfirmRecord, len(m.confirmations))
	copy(records, m.confirmations)
	return records
}

func (m *MemoryStore) WriteLogMessage(_ services.Data) error {
	return nil
}

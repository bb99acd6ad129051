package repositories

import (
	"context"
	"sync"
	"time"

	"shoplab/internal/models"
)

type memoryCart struct {
	cart      models.Cart
	expiresAt time.Time
}

// MemoryCartStore is an in-memory implementation of CartStore for single
// process runs without Redis. Expired carts are dropped lazily on read.
type MemoryCartStore struct {
	carts map[string]memoryCart
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
}

// NewMemoryCartStore creates a new instance of MemoryCartStore.
func NewMemoryCartStore(ttl time.Duration) *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string]memoryCart),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock replaces the store's time source.
func (s *MemoryCartStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryCartStore) Get(_ context.Context, sessionID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return &models.Cart{SessionID: sessionID, Items: []models.CartLine{}}, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.carts, sessionID)
		return &models.Cart{SessionID: sessionID, Items: []models.CartLine{}}, nil
	}

	cart := entry.cart
	cart.Items = append([]models.CartLine{}, entry.cart.Items...)
	return &cart, nil
}

func (s *MemoryCartStore) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cart.UpdatedAt = now.UTC()
	stored := *cart
	stored.Items = append([]models.CartLine{}, cart.Items...)
	s.carts[cart.SessionID] = memoryCart{cart: stored, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

var _ CartStore = (*MemoryCartStore)(nil)

// Package memory is an in-memory implementation of the compliance stores,
// used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	"candlepin/pkg/platform/sentinel"
)

// InMemory implements ports.ConsumerStore and ports.Inventory.
// Values are copied in and out so callers never share state with the store.
type InMemory struct {
	mu           sync.RWMutex
	owners       map[id.OwnerID]models.Owner
	consumers    map[id.ConsumerID]*models.Consumer
	products     map[id.ProductID]models.Product
	pools        map[id.PoolID]models.Pool
	entitlements map[id.EntitlementID]models.Entitlement
}

func NewInMemory() *InMemory {
	return &InMemory{
		owners:       make(map[id.OwnerID]models.Owner),
		consumers:    make(map[id.ConsumerID]*models.Consumer),
		products:     make(map[id.ProductID]models.Product),
		pools:        make(map[id.PoolID]models.Pool),
		entitlements: make(map[id.EntitlementID]models.Entitlement),
	}
}

func (s *InMemory) PutOwner(owner models.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.ID] = owner
}

func (s *InMemory) PutConsumer(consumer *models.Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumers[consumer.ID] = consumer.Clone()
}

func (s *InMemory) PutProduct(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

func (s *InMemory) PutPool(pool models.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.ID] = pool
}

func (s *InMemory) PutEntitlement(ent models.Entitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[ent.ID] = ent
}

func (s *InMemory) GetConsumer(_ context.Context, consumerID id.ConsumerID) (*models.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consumers[consumerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) ListConsumerIDs(_ context.Context, ownerID id.OwnerID) ([]id.ConsumerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []id.ConsumerID
	for _, c := range s.consumers {
		if c.OwnerID == ownerID {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// UpdateComplianceState copies only the status fields onto the stored consumer.
func (s *InMemory) UpdateComplianceState(_ context.Context, consumer *models.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.consumers[consumer.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.ComplianceStatusHash = consumer.ComplianceStatusHash
	stored.EntitlementStatus = consumer.EntitlementStatus
	stored.SystemPurposeStatusHash = consumer.SystemPurposeStatusHash
	stored.SystemPurposeStatus = consumer.SystemPurposeStatus
	stored.UpdatedAt = consumer.UpdatedAt
	return nil
}

func (s *InMemory) GetOwner(_ context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[ownerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &o, nil
}

func (s *InMemory) ListEntitlements(_ context.Context, consumerID id.ConsumerID) ([]models.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Entitlement
	for _, e := range s.entitlements {
		if e.ConsumerID == consumerID {
			out = append(out, e)
		}
	}
	sortEntitlements(out)
	return out, nil
}

func (s *InMemory) GetEntitlements(_ context.Context, ids []id.EntitlementID) ([]models.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Entitlement, 0, len(ids))
	for _, entID := range ids {
		if e, ok := s.entitlements[entID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemory) LoadSnapshot(_ context.Context, ents []models.Entitlement) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pools []*models.Pool
	wanted := make(map[id.ProductID]struct{})
	seenPools := make(map[id.PoolID]struct{})
	for _, e := range ents {
		if _, dup := seenPools[e.PoolID]; dup {
			continue
		}
		seenPools[e.PoolID] = struct{}{}
		p, ok := s.pools[e.PoolID]
		if !ok {
			continue
		}
		pools = append(pools, &p)
		for _, pid := range poolProductIDs(&p) {
			wanted[pid] = struct{}{}
		}
	}

	products := make([]*models.Product, 0, len(wanted))
	for pid := range wanted {
		if p, ok := s.products[pid]; ok {
			products = append(products, &p)
		}
	}
	return models.NewSnapshot(pools, products), nil
}

func poolProductIDs(p *models.Pool) []id.ProductID {
	ids := []id.ProductID{p.ProductID}
	ids = append(ids, p.ProvidedProductIDs...)
	if p.DerivedProductID != "" {
		ids = append(ids, p.DerivedProductID)
	}
	return append(ids, p.DerivedProvidedProductIDs...)
}

func sortEntitlements(ents []models.Entitlement) {
	sort.Slice(ents, func(i, j int) bool { return ents[i].ID.String() < ents[j].ID.String() })
}

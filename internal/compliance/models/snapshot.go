package models

import (
	"time"

	id "candlepin/pkg/domain"
)

// Snapshot indexes the pools and products referenced by a set of
// entitlements. It is built once per evaluation and read concurrently
// without locking.
type Snapshot struct {
	Products map[id.ProductID]*Product
	Pools    map[id.PoolID]*Pool
}

// NewSnapshot indexes the given pools and products. Nil entries are skipped.
func NewSnapshot(pools []*Pool, products []*Product) *Snapshot {
	s := &Snapshot{
		Products: make(map[id.ProductID]*Product, len(products)),
		Pools:    make(map[id.PoolID]*Pool, len(pools)),
	}
	for _, p := range pools {
		if p != nil {
			s.Pools[p.ID] = p
		}
	}
	for _, p := range products {
		if p != nil {
			s.Products[p.ID] = p
		}
	}
	return s
}

// Pool returns the indexed pool or nil.
func (s *Snapshot) Pool(poolID id.PoolID) *Pool {
	if s == nil {
		return nil
	}
	return s.Pools[poolID]
}

// Product returns the indexed product or nil.
func (s *Snapshot) Product(productID id.ProductID) *Product {
	if s == nil || productID == "" {
		return nil
	}
	return s.Products[productID]
}

// ActiveAt reports whether the entitlement and its pool are both active.
// An entitlement whose pool is not indexed is treated as inactive.
func (s *Snapshot) ActiveAt(ent Entitlement, at time.Time) bool {
	pool := s.Pool(ent.PoolID)
	if pool == nil {
		return false
	}
	return ent.ActiveAt(at) && pool.ActiveAt(at)
}

// PurposeProducts returns the products whose attributes count toward system
// purpose: the pool's product, provided products, derived product and
// derived provided products. Unknown IDs are skipped.
func (s *Snapshot) PurposeProducts(ent Entitlement) []*Product {
	pool := s.Pool(ent.PoolID)
	if pool == nil {
		return nil
	}
	ids := make([]id.ProductID, 0, 2+len(pool.ProvidedProductIDs)+len(pool.DerivedProvidedProductIDs))
	ids = append(ids, pool.ProductID)
	ids = append(ids, pool.ProvidedProductIDs...)
	ids = append(ids, pool.DerivedProductID)
	ids = append(ids, pool.DerivedProvidedProductIDs...)
	return s.resolve(ids)
}

// ProvidesProduct reports whether the entitlement's pool covers an installed
// product through its own product or its provided products.
func (s *Snapshot) ProvidesProduct(ent Entitlement, productID id.ProductID) bool {
	pool := s.Pool(ent.PoolID)
	if pool == nil {
		return false
	}
	if pool.ProductID == productID {
		return true
	}
	for _, p := range pool.ProvidedProductIDs {
		if p == productID {
			return true
		}
	}
	return false
}

// PoolProduct returns the product an entitlement's pool is for.
func (s *Snapshot) PoolProduct(ent Entitlement) *Product {
	pool := s.Pool(ent.PoolID)
	if pool == nil {
		return nil
	}
	return s.Product(pool.ProductID)
}

func (s *Snapshot) resolve(ids []id.ProductID) []*Product {
	seen := make(map[id.ProductID]struct{}, len(ids))
	out := make([]*Product, 0, len(ids))
	for _, pid := range ids {
		if pid == "" {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		if p := s.Product(pid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

package evaluator

import (
	"time"

	"github.com/google/uuid"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
)

var evalTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// fixture accumulates pools and products for a test snapshot.
type fixture struct {
	pools    []*models.Pool
	products []*models.Product
}

func (f *fixture) product(pid id.ProductID, attrs map[string]string) *models.Product {
	p := &models.Product{ID: pid, Name: "Product " + string(pid), Attributes: attrs}
	f.products = append(f.products, p)
	return p
}

// entitle creates a pool for product (providing provided) and an
// entitlement of quantity against it.
func (f *fixture) entitle(product id.ProductID, quantity int, provided ...id.ProductID) models.Entitlement {
	pool := &models.Pool{
		ID:                 id.PoolID(uuid.New()),
		ProductID:          product,
		ProvidedProductIDs: provided,
		Quantity:           100,
	}
	f.pools = append(f.pools, pool)
	return models.Entitlement{
		ID:       id.EntitlementID(uuid.New()),
		PoolID:   pool.ID,
		Quantity: quantity,
	}
}

func (f *fixture) snapshot() *models.Snapshot {
	return models.NewSnapshot(f.pools, f.products)
}

func entitlementOwner() *models.Owner {
	return &models.Owner{ID: id.OwnerID(uuid.New()), Key: "acme", ContentAccessMode: models.ContentAccessEntitlement}
}

func scaOwner() *models.Owner {
	return &models.Owner{ID: id.OwnerID(uuid.New()), Key: "acme-sca", ContentAccessMode: models.ContentAccessOrgEnvironment}
}

func newConsumer() *models.Consumer {
	return &models.Consumer{ID: id.ConsumerID(uuid.New()), Name: "host.example.com", Facts: map[string]string{}}
}

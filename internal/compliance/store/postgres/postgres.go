// Package postgres persists compliance consumers and inventory in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	"candlepin/pkg/platform/sentinel"
	txcontext "candlepin/pkg/platform/tx"
)

// Store implements ports.ConsumerStore and ports.Inventory. Every query runs
// on the transaction carried by ctx when there is one.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const consumerColumns = `id, owner_id, name, facts, installed_products, role, usage, service_level, addons,
	compliance_status_hash, entitlement_status, system_purpose_status_hash, system_purpose_status, updated_at`

func (s *Store) GetConsumer(ctx context.Context, consumerID id.ConsumerID) (*models.Consumer, error) {
	row := txcontext.Execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE id = $1`, uuid.UUID(consumerID))

	var (
		c                          models.Consumer
		cid, oid                   uuid.UUID
		facts, installed           []byte
		role, usage, sla           sql.NullString
		complianceHash, entStatus  sql.NullString
		purposeHash, purposeStatus sql.NullString
		addons                     pq.StringArray
	)
	err := row.Scan(&cid, &oid, &c.Name, &facts, &installed, &role, &usage, &sla, &addons,
		&complianceHash, &entStatus, &purposeHash, &purposeStatus, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consumer by id: %w", err)
	}
	c.ID = id.ConsumerID(cid)
	c.OwnerID = id.OwnerID(oid)
	if len(facts) > 0 && string(facts) != "null" {
		if err := json.Unmarshal(facts, &c.Facts); err != nil {
			return nil, fmt.Errorf("unmarshal consumer facts: %w", err)
		}
	}
	if len(installed) > 0 {
		if err := json.Unmarshal(installed, &c.InstalledProducts); err != nil {
			return nil, fmt.Errorf("unmarshal installed products: %w", err)
		}
	}
	c.Role = role.String
	c.Usage = usage.String
	c.ServiceLevel = sla.String
	if len(addons) > 0 {
		c.AddOns = []string(addons)
	}
	c.ComplianceStatusHash = complianceHash.String
	c.EntitlementStatus = entStatus.String
	c.SystemPurposeStatusHash = purposeHash.String
	c.SystemPurposeStatus = purposeStatus.String
	return &c, nil
}

func (s *Store) ListConsumerIDs(ctx context.Context, ownerID id.OwnerID) ([]id.ConsumerID, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM consumers WHERE owner_id = $1 ORDER BY id`, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}
	defer rows.Close()

	var ids []id.ConsumerID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan consumer id: %w", err)
		}
		ids = append(ids, id.ConsumerID(u))
	}
	return ids, rows.Err()
}

func (s *Store) UpdateComplianceState(ctx context.Context, consumer *models.Consumer) error {
	updatedAt := consumer.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	res, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE consumers SET
			compliance_status_hash = $2,
			entitlement_status = $3,
			system_purpose_status_hash = $4,
			system_purpose_status = $5,
			updated_at = $6
		WHERE id = $1`,
		uuid.UUID(consumer.ID),
		nullString(consumer.ComplianceStatusHash),
		nullString(consumer.EntitlementStatus),
		nullString(consumer.SystemPurposeStatusHash),
		nullString(consumer.SystemPurposeStatus),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update consumer compliance state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update consumer compliance state: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SaveConsumer upserts the full consumer row.
func (s *Store) SaveConsumer(ctx context.Context, c *models.Consumer) error {
	facts, err := json.Marshal(c.Facts)
	if err != nil {
		return fmt.Errorf("marshal consumer facts: %w", err)
	}
	installed, err := json.Marshal(c.InstalledProducts)
	if err != nil {
		return fmt.Errorf("marshal installed products: %w", err)
	}
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO consumers (`+consumerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			facts = EXCLUDED.facts,
			installed_products = EXCLUDED.installed_products,
			role = EXCLUDED.role,
			usage = EXCLUDED.usage,
			service_level = EXCLUDED.service_level,
			addons = EXCLUDED.addons,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(c.ID), uuid.UUID(c.OwnerID), c.Name, facts, installed,
		nullString(c.Role), nullString(c.Usage), nullString(c.ServiceLevel), pq.Array(c.AddOns),
		nullString(c.ComplianceStatusHash), nullString(c.EntitlementStatus),
		nullString(c.SystemPurposeStatusHash), nullString(c.SystemPurposeStatus), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save consumer: %w", err)
	}
	return nil
}

func (s *Store) GetOwner(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	var (
		o    models.Owner
		oid  uuid.UUID
		mode string
	)
	err := txcontext.Execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, key, content_access_mode FROM owners WHERE id = $1`, uuid.UUID(ownerID),
	).Scan(&oid, &o.Key, &mode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find owner by id: %w", err)
	}
	o.ID = id.OwnerID(oid)
	if o.ContentAccessMode, err = models.ParseContentAccessMode(mode); err != nil {
		return nil, err
	}
	return &o, nil
}

// SaveOwner upserts an owner.
func (s *Store) SaveOwner(ctx context.Context, o models.Owner) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO owners (id, key, content_access_mode) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET key = EXCLUDED.key, content_access_mode = EXCLUDED.content_access_mode`,
		uuid.UUID(o.ID), o.Key, string(o.ContentAccessMode))
	if err != nil {
		return fmt.Errorf("save owner: %w", err)
	}
	return nil
}

const entitlementColumns = `id, consumer_id, pool_id, quantity, start_date, end_date`

func (s *Store) ListEntitlements(ctx context.Context, consumerID id.ConsumerID) ([]models.Entitlement, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+entitlementColumns+` FROM entitlements WHERE consumer_id = $1 ORDER BY id`,
		uuid.UUID(consumerID))
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	return scanEntitlements(rows)
}

func (s *Store) GetEntitlements(ctx context.Context, ids []id.EntitlementID) ([]models.Entitlement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, e := range ids {
		raw[i] = e.String()
	}
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+entitlementColumns+` FROM entitlements WHERE id = ANY($1::uuid[]) ORDER BY id`,
		pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("get entitlements: %w", err)
	}
	return scanEntitlements(rows)
}

// SaveEntitlement upserts an entitlement.
func (s *Store) SaveEntitlement(ctx context.Context, e models.Entitlement) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO entitlements (`+entitlementColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date`,
		uuid.UUID(e.ID), uuid.UUID(e.ConsumerID), uuid.UUID(e.PoolID), e.Quantity,
		nullTime(e.StartDate), nullTime(e.EndDate))
	if err != nil {
		return fmt.Errorf("save entitlement: %w", err)
	}
	return nil
}

func scanEntitlements(rows *sql.Rows) ([]models.Entitlement, error) {
	defer rows.Close()
	var out []models.Entitlement
	for rows.Next() {
		var (
			e             models.Entitlement
			eid, cid, pid uuid.UUID
			start, end    sql.NullTime
		)
		if err := rows.Scan(&eid, &cid, &pid, &e.Quantity, &start, &end); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		e.ID = id.EntitlementID(eid)
		e.ConsumerID = id.ConsumerID(cid)
		e.PoolID = id.PoolID(pid)
		e.StartDate = start.Time
		e.EndDate = end.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadSnapshot reads the distinct pools of the entitlements and every product
// those pools reference, in two queries.
func (s *Store) LoadSnapshot(ctx context.Context, ents []models.Entitlement) (*models.Snapshot, error) {
	if len(ents) == 0 {
		return models.NewSnapshot(nil, nil), nil
	}
	seen := make(map[id.PoolID]struct{}, len(ents))
	poolIDs := make([]string, 0, len(ents))
	for _, e := range ents {
		if _, dup := seen[e.PoolID]; dup {
			continue
		}
		seen[e.PoolID] = struct{}{}
		poolIDs = append(poolIDs, e.PoolID.String())
	}

	pools, err := s.listPools(ctx, poolIDs)
	if err != nil {
		return nil, err
	}

	productSet := make(map[string]struct{})
	for _, p := range pools {
		for _, pid := range poolProductIDs(p) {
			productSet[string(pid)] = struct{}{}
		}
	}
	productIDs := make([]string, 0, len(productSet))
	for pid := range productSet {
		productIDs = append(productIDs, pid)
	}

	products, err := s.listProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	return models.NewSnapshot(pools, products), nil
}

func (s *Store) listPools(ctx context.Context, poolIDs []string) ([]*models.Pool, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, owner_id, product_id, provided_product_ids, derived_product_id,
			derived_provided_product_ids, quantity, start_date, end_date
		FROM pools WHERE id = ANY($1::uuid[])`, pq.Array(poolIDs))
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var pools []*models.Pool
	for rows.Next() {
		var (
			p                         models.Pool
			pid, oid                  uuid.UUID
			product                   string
			derived                   sql.NullString
			provided, derivedProvided pq.StringArray
			start, end                sql.NullTime
		)
		if err := rows.Scan(&pid, &oid, &product, &provided, &derived, &derivedProvided,
			&p.Quantity, &start, &end); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		p.ID = id.PoolID(pid)
		p.OwnerID = id.OwnerID(oid)
		p.ProductID = id.ProductID(product)
		p.ProvidedProductIDs = toProductIDs(provided)
		p.DerivedProductID = id.ProductID(derived.String)
		p.DerivedProvidedProductIDs = toProductIDs(derivedProvided)
		p.StartDate = start.Time
		p.EndDate = end.Time
		pools = append(pools, &p)
	}
	return pools, rows.Err()
}

func (s *Store) listProducts(ctx context.Context, productIDs []string) ([]*models.Product, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx,
		`SELECT id, name, attributes FROM products WHERE id = ANY($1)`, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var (
			p     models.Product
			pid   string
			attrs []byte
		)
		if err := rows.Scan(&pid, &p.Name, &attrs); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ID = id.ProductID(pid)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal product attributes: %w", err)
			}
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// SavePool upserts a pool.
func (s *Store) SavePool(ctx context.Context, p models.Pool) error {
	_, err := txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO pools (id, owner_id, product_id, provided_product_ids, derived_product_id,
			derived_provided_product_ids, quantity, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			provided_product_ids = EXCLUDED.provided_product_ids,
			derived_product_id = EXCLUDED.derived_product_id,
			derived_provided_product_ids = EXCLUDED.derived_provided_product_ids,
			quantity = EXCLUDED.quantity,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date`,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), string(p.ProductID),
		pq.Array(fromProductIDs(p.ProvidedProductIDs)), nullString(string(p.DerivedProductID)),
		pq.Array(fromProductIDs(p.DerivedProvidedProductIDs)), p.Quantity,
		nullTime(p.StartDate), nullTime(p.EndDate))
	if err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}

// SaveProduct upserts a product.
func (s *Store) SaveProduct(ctx context.Context, p models.Product) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("marshal product attributes: %w", err)
	}
	_, err = txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO products (id, name, attributes) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, attributes = EXCLUDED.attributes`,
		string(p.ID), p.Name, attrs)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func poolProductIDs(p *models.Pool) []id.ProductID {
	ids := []id.ProductID{p.ProductID}
	ids = append(ids, p.ProvidedProductIDs...)
	if p.DerivedProductID != "" {
		ids = append(ids, p.DerivedProductID)
	}
	return append(ids, p.DerivedProvidedProductIDs...)
}

func toProductIDs(raw pq.StringArray) []id.ProductID {
	if len(raw) == 0 {
		return nil
	}
	out := make([]id.ProductID, len(raw))
	for i, s := range raw {
		out[i] = id.ProductID(s)
	}
	return out
}

func fromProductIDs(ids []id.ProductID) []string {
	out := make([]string, len(ids))
	for i, p := range ids {
		out[i] = string(p)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

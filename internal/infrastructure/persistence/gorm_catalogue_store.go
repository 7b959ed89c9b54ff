package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/domain/shared"
	"github.com/sitestock/inventorybot/internal/infrastructure/persistence/models"
)

// GormCatalogueStore implements inventory.ItemRepository against a Postgres
// database and holds the movement and stock-take queries that MovementStore
// and StocktakeStore expose as MovementRepository and StocktakeRepository,
// following the teacher's repository-over-*gorm.DB pattern.
type GormCatalogueStore struct {
	db *gorm.DB
}

// NewGormCatalogueStore constructs a store backed by the given database.
func NewGormCatalogueStore(db *Database) *GormCatalogueStore {
	return &GormCatalogueStore{db: db.DB}
}

// FindByName looks up an item by its case-insensitive name.
func (s *GormCatalogueStore) FindByName(ctx context.Context, name string) (*inventory.Item, error) {
	var row models.Item
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindByID looks up an item by its id.
func (s *GormCatalogueStore) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var row models.Item
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindAll returns every active item, used by the catalogue cache (C3).
func (s *GormCatalogueStore) FindAll(ctx context.Context) ([]*inventory.Item, error) {
	var rows []models.Item
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*inventory.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return items, nil
}

// Save creates or updates an item, keyed by its id.
func (s *GormCatalogueStore) Save(ctx context.Context, item *inventory.Item) error {
	row := models.FromDomainItem(item)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
		item.ID = row.ID
	}
	return s.db.WithContext(ctx).Save(row).Error
}

// SaveMovement persists a movement record.
func (s *GormCatalogueStore) SaveMovement(ctx context.Context, movement *inventory.StockMovement) error {
	row := models.FromDomainMovement(movement)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
		movement.ID = row.ID
	}
	return s.db.WithContext(ctx).Save(row).Error
}

// FindMovementsByBatchID returns every movement recorded under a batch.
func (s *GormCatalogueStore) FindMovementsByBatchID(ctx context.Context, batchID string) ([]*inventory.StockMovement, error) {
	var rows []models.StockMovement
	if err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("timestamp asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*inventory.StockMovement, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// FindMovementsByItemName returns movement history for one item, newest
// first, capped at limit (§12 supplemented "audit" verb).
func (s *GormCatalogueStore) FindMovementsByItemName(ctx context.Context, itemName string, limit int) ([]*inventory.StockMovement, error) {
	var rows []models.StockMovement
	query := s.db.WithContext(ctx).Where("LOWER(item_name) = LOWER(?)", itemName).Order("timestamp desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*inventory.StockMovement, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SaveStocktake persists a stock-take audit record.
func (s *GormCatalogueStore) SaveStocktake(ctx context.Context, st *inventory.InventoryStocktake) error {
	row := models.FromDomainStocktake(st)
	row.ID = uuid.New()
	return s.db.WithContext(ctx).Create(row).Error
}

// FindStocktakesByBatchID returns every stock-take line recorded under a batch.
func (s *GormCatalogueStore) FindStocktakesByBatchID(ctx context.Context, batchID string) ([]*inventory.InventoryStocktake, error) {
	var rows []models.InventoryStocktake
	if err := s.db.WithContext(ctx).Where("batch_id = ?", batchID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*inventory.InventoryStocktake, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// MovementStore adapts GormCatalogueStore's movement methods to
// inventory.MovementRepository, since Save/FindByBatchID/FindByItemName
// would otherwise collide with the item-repository methods of the same
// receiver.
type MovementStore struct {
	store *GormCatalogueStore
}

// NewMovementStore wraps a catalogue store as a MovementRepository.
func NewMovementStore(store *GormCatalogueStore) *MovementStore {
	return &MovementStore{store: store}
}

func (m *MovementStore) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return m.store.SaveMovement(ctx, movement)
}

func (m *MovementStore) FindByBatchID(ctx context.Context, batchID string) ([]*inventory.StockMovement, error) {
	return m.store.FindMovementsByBatchID(ctx, batchID)
}

func (m *MovementStore) FindByItemName(ctx context.Context, itemName string, limit int) ([]*inventory.StockMovement, error) {
	return m.store.FindMovementsByItemName(ctx, itemName, limit)
}

// StocktakeStore adapts GormCatalogueStore's stocktake methods to
// inventory.StocktakeRepository.
type StocktakeStore struct {
	store *GormCatalogueStore
}

// NewStocktakeStore wraps a catalogue store as a StocktakeRepository.
func NewStocktakeStore(store *GormCatalogueStore) *StocktakeStore {
	return &StocktakeStore{store: store}
}

func (s *StocktakeStore) Save(ctx context.Context, st *inventory.InventoryStocktake) error {
	return s.store.SaveStocktake(ctx, st)
}

func (s *StocktakeStore) FindByBatchID(ctx context.Context, batchID string) ([]*inventory.InventoryStocktake, error) {
	return s.store.FindStocktakesByBatchID(ctx, batchID)
}

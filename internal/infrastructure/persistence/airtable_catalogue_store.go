package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// airtableNamespace is a fixed UUID used to derive deterministic ids from
// Airtable record ids (uuid.NewSHA1), since Airtable's own "rec..." ids are
// not themselves UUIDs but inventory.ItemRepository's contract is.
var airtableNamespace = uuid.MustParse("6f6d0f0a-6e61-4f7a-8e9e-2f6f7b6a8f9d")

// airtableRecord mirrors a single row of Airtable's List Records response.
type airtableRecord struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type airtableListResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

// AirtableCatalogueStore implements inventory.ItemRepository against an
// Airtable base's "Items" table, grounded on original_source's
// AirtableClient.get_item/search_items/get_all_items. It is a secondary
// store: a site that prefers a spreadsheet-backed catalogue over Postgres
// configures this implementation instead of GormCatalogueStore.
type AirtableCatalogueStore struct {
	client *resty.Client
	baseID string
}

// NewAirtableCatalogueStore constructs a store against the given base,
// authenticating with a personal access token the same way the Python
// client does (Bearer token in every request).
func NewAirtableCatalogueStore(apiToken, baseID string) *AirtableCatalogueStore {
	client := resty.New().
		SetBaseURL("https://api.airtable.com/v0").
		SetAuthToken(apiToken).
		SetTimeout(10 * time.Second).
		SetRetryCount(1)

	return &AirtableCatalogueStore{client: client, baseID: baseID}
}

// FindByName fetches every row and matches case-insensitively, matching the
// Python client's filterByFormula-then-client-filter pattern.
func (s *AirtableCatalogueStore) FindByName(ctx context.Context, name string) (*inventory.Item, error) {
	items, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	target := strings.ToLower(strings.TrimSpace(name))
	for _, item := range items {
		if item.NormalizedName() == target {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByID looks up an item by its deterministic Airtable-derived id.
func (s *AirtableCatalogueStore) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	items, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindAll fetches every row of the Items table, following pagination via
// Airtable's `offset` cursor (original_source's get_all_items has no
// pagination loop; this store adds one since the spec expects the full
// catalogue regardless of table size).
func (s *AirtableCatalogueStore) FindAll(ctx context.Context) ([]*inventory.Item, error) {
	var items []*inventory.Item
	offset := ""

	for {
		var result airtableListResponse
		req := s.client.R().SetContext(ctx).SetResult(&result)
		if offset != "" {
			req.SetQueryParam("offset", offset)
		}

		resp, err := req.Get(fmt.Sprintf("/%s/Items", s.baseID))
		if err != nil {
			return nil, fmt.Errorf("airtable: fetching items: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("airtable: unexpected status %d fetching items", resp.StatusCode())
		}

		for _, rec := range result.Records {
			items = append(items, recordToItem(rec))
		}

		if result.Offset == "" {
			break
		}
		offset = result.Offset
	}

	return items, nil
}

// Save upserts an item: if it has an id and a record with the item's name
// is found, PATCH the first such record; otherwise POST a new record and
// set the item's id from the created record's id.
func (s *AirtableCatalogueStore) Save(ctx context.Context, item *inventory.Item) error {
	fields := itemToFields(item)

	if item.ID != uuid.Nil {
		recordID, ok := s.lookupRecordID(ctx, item)
		if ok {
			resp, err := s.client.R().SetContext(ctx).
				SetBody(map[string]interface{}{"fields": fields}).
				Patch(fmt.Sprintf("/%s/Items/%s", s.baseID, recordID))
			if err != nil {
				return fmt.Errorf("airtable: updating item %q: %w", item.Name, err)
			}
			if resp.IsError() {
				return fmt.Errorf("airtable: unexpected status %d updating item %q", resp.StatusCode(), item.Name)
			}
			return nil
		}
	}

	var created airtableRecord
	resp, err := s.client.R().SetContext(ctx).
		SetBody(map[string]interface{}{"fields": fields}).
		SetResult(&created).
		Post(fmt.Sprintf("/%s/Items", s.baseID))
	if err != nil {
		return fmt.Errorf("airtable: creating item %q: %w", item.Name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("airtable: unexpected status %d creating item %q", resp.StatusCode(), item.Name)
	}
	item.ID = uuid.NewSHA1(airtableNamespace, []byte(created.ID))
	return nil
}

// lookupRecordID resolves an item's Airtable record id from its name, since
// the store's only durable key externally is the row's own "rec..." id,
// which this package never persists on the domain Item itself.
func (s *AirtableCatalogueStore) lookupRecordID(ctx context.Context, item *inventory.Item) (string, bool) {
	var result airtableListResponse
	resp, err := s.client.R().SetContext(ctx).SetResult(&result).
		SetQueryParam("filterByFormula", fmt.Sprintf("{Name}='%s'", item.Name)).
		Get(fmt.Sprintf("/%s/Items", s.baseID))
	if err != nil || resp.IsError() || len(result.Records) == 0 {
		return "", false
	}
	return result.Records[0].ID, true
}

func recordToItem(rec airtableRecord) *inventory.Item {
	item := inventory.NewItem(stringField(rec.Fields, "Name"))
	item.ID = uuid.NewSHA1(airtableNamespace, []byte(rec.ID))
	item.OnHand = decimal.NewFromFloat(floatField(rec.Fields, "On Hand", 0))
	item.UnitSize = decimal.NewFromFloat(floatField(rec.Fields, "Unit Size", 1))
	item.UnitType = stringFieldOr(rec.Fields, "Unit Type", "piece")
	item.Category = inventory.Category(stringFieldOr(rec.Fields, "Category", string(inventory.CategoryGeneral)))
	item.Location = stringField(rec.Fields, "Preferred Location")
	item.IsActive = boolFieldOr(rec.Fields, "Is Active", true)
	item.LastStocktakeBy = stringField(rec.Fields, "Last Stocktake By")

	if threshold, ok := rec.Fields["Reorder Level"]; ok {
		v := decimal.NewFromFloat(toFloat(threshold))
		item.ReorderThreshold = &v
	}
	if threshold, ok := rec.Fields["Large Qty Threshold"]; ok {
		v := decimal.NewFromFloat(toFloat(threshold))
		item.LargeQtyThreshold = &v
	}
	return item
}

func itemToFields(item *inventory.Item) map[string]interface{} {
	fields := map[string]interface{}{
		"Name":      item.Name,
		"On Hand":   item.OnHand.InexactFloat64(),
		"Unit Size": item.UnitSize.InexactFloat64(),
		"Unit Type": item.UnitType,
		"Category":  string(item.Category),
		"Is Active": item.IsActive,
	}
	if item.ReorderThreshold != nil {
		fields["Reorder Level"] = item.ReorderThreshold.InexactFloat64()
	}
	if item.LargeQtyThreshold != nil {
		fields["Large Qty Threshold"] = item.LargeQtyThreshold.InexactFloat64()
	}
	return fields
}

func stringField(fields map[string]interface{}, key string) string {
	return stringFieldOr(fields, key, "")
}

func stringFieldOr(fields map[string]interface{}, key, fallback string) string {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}

func floatField(fields map[string]interface{}, key string, fallback float64) float64 {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	return toFloat(v)
}

func boolFieldOr(fields map[string]interface{}, key string, fallback bool) bool {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// Category is a closed set of catalogue categories used for auto-create
// heuristics and reporting.
type Category string

const (
	CategoryGeneral    Category = "General"
	CategoryPaint      Category = "Paint"
	CategoryElectrical Category = "Electrical"
	CategorySteel      Category = "Steel"
	CategoryPlumbing   Category = "Plumbing"
	CategoryCement     Category = "Cement"
	CategoryHardware   Category = "Hardware"
)

// categoryKeywords maps a lowercase keyword found in an item name to the
// category it should route to. Checked in order; first match wins.
var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"paint", CategoryPaint},
	{"wire", CategoryElectrical},
	{"cable", CategoryElectrical},
	{"switch", CategoryElectrical},
	{"socket", CategoryElectrical},
	{"beam", CategorySteel},
	{"rebar", CategorySteel},
	{"steel", CategorySteel},
	{"rod", CategorySteel},
	{"pipe", CategoryPlumbing},
	{"fitting", CategoryPlumbing},
	{"valve", CategoryPlumbing},
	{"cement", CategoryCement},
	{"concrete", CategoryCement},
	{"nail", CategoryHardware},
	{"screw", CategoryHardware},
	{"bolt", CategoryHardware},
	{"hinge", CategoryHardware},
}

// InferCategory maps an item name to a category using the closed keyword
// heuristic from the auto-create policy (§4.6). Defaults to General.
func InferCategory(name string) Category {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.category
		}
	}
	return CategoryGeneral
}

// Item is the catalogue entry: the thing being counted, moved, and
// stock-taken. Identity is the case-insensitive name.
type Item struct {
	shared.BaseEntity

	Name    string
	OnHand  decimal.Decimal
	// UnitSize is the size of one unit, e.g. 50 for "50kg bags". Defaults to 1.
	UnitSize decimal.Decimal
	// UnitType is a short token, e.g. "kg", "piece", "bag". Defaults to "piece".
	UnitType string
	Category Category
	Location string

	ReorderThreshold   *decimal.Decimal
	LargeQtyThreshold  *decimal.Decimal
	IsActive           bool
	LastStocktakeDate  *time.Time
	LastStocktakeBy    string
}

// NewItem constructs a new catalogue entry with the invariants of §3 applied:
// unit size defaults to 1, unit type defaults to "piece", on-hand starts at 0.
func NewItem(name string) *Item {
	return &Item{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		OnHand:     decimal.Zero,
		UnitSize:   decimal.NewFromInt(1),
		UnitType:   "piece",
		Category:   CategoryGeneral,
		IsActive:   true,
	}
}

// NormalizedName returns the case-insensitive identity used for lookups.
func (i *Item) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(i.Name))
}

// TotalVolume returns unit_size × on_hand, the invariant named in §3.
func (i *Item) TotalVolume() decimal.Decimal {
	return i.UnitSize.Mul(i.OnHand)
}

// Validate enforces the Item invariants: unit_size > 0, unit_type non-empty.
func (i *Item) Validate() error {
	if i.UnitSize.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_UNIT_SIZE", "unit size must be positive")
	}
	if strings.TrimSpace(i.UnitType) == "" {
		return shared.NewDomainError("INVALID_UNIT_TYPE", "unit type must not be empty")
	}
	return nil
}

// AppendProject appends a project to the item's location note if not already
// present, comma-joined, matching the project-conflict handling in §4.5.
// Items do not carry a dedicated project field in the catalogue (projects
// belong to movements); this is used only by the duplicate engine's merge
// path when an item's free-form location doubles as a project tag.
func AppendProject(existing, newProject string) string {
	newProject = strings.TrimSpace(newProject)
	if newProject == "" {
		return existing
	}
	parts := strings.Split(existing, ",")
	for _, p := range parts {
		if strings.EqualFold(strings.TrimSpace(p), newProject) {
			return existing
		}
	}
	if strings.TrimSpace(existing) == "" {
		return newProject
	}
	return existing + ", " + newProject
}

// ThresholdExceeded reports whether qty crosses the item's large-quantity
// threshold, if one is configured.
func (i *Item) ThresholdExceeded(qty decimal.Decimal) bool {
	if i.LargeQtyThreshold == nil {
		return false
	}
	return qty.GreaterThan(*i.LargeQtyThreshold)
}

// NeedsReorder reports whether on-hand has dropped to or below the
// configured reorder threshold.
func (i *Item) NeedsReorder() bool {
	if i.ReorderThreshold == nil {
		return false
	}
	return i.OnHand.LessThanOrEqual(*i.ReorderThreshold)
}

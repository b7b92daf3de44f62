package testutil

import (
	"encoding/json"
	"testing"

	"github.com/udisondev/gearcfg/internal/model"
)

// Fixtures содержит типовые ID из тестового каталога, чтобы не дублировать строки в тестах.
var Fixtures = struct {
	HelmetSlot     string
	GlovesSlot     string
	RibSlot        string
	AccessorySlot  string
	AccessorySlot2 string

	Helmet       string
	Helmet2      string
	Gloves       string
	Rib          string
	Accessory    string
	Accessory2   string
	Accessory3   string
	PinnedAccess string

	HelmetType    string
	GlovesType    string
	AccessoryType string
}{
	HelmetSlot:     "helmet",
	GlovesSlot:     "gloves",
	RibSlot:        "rib-protector",
	AccessorySlot:  "accessory-1",
	AccessorySlot2: "accessory-2",

	Helmet:       "helmet-001",
	Helmet2:      "helmet-002",
	Gloves:       "gloves-001",
	Rib:          "rib-001",
	Accessory:    "acc-001",
	Accessory2:   "acc-002",
	Accessory3:   "acc-003",
	PinnedAccess: "acc-004",

	HelmetType:    "头盔",
	GlovesType:    "手套",
	AccessoryType: "饰品",
}

// Slots returns the ten slots of the test catalog.
// helmet and rib-protector are required; accessory-1 holds two items.
func Slots() []model.SlotConfig {
	slot := func(id, typ string, required bool, maxCount int, allowed ...string) model.SlotConfig {
		return model.SlotConfig{
			ID:           id,
			Type:         typ,
			DisplayName:  typ + "槽",
			Position:     model.SlotPosition{Top: "10%", Left: "10%"},
			Size:         model.SlotSize{Width: "12%", Height: "12%"},
			Required:     required,
			MaxCount:     maxCount,
			AllowedTypes: allowed,
		}
	}
	return []model.SlotConfig{
		slot("helmet", "头盔", true, 1, "头盔"),
		slot("balaclava", "头套", false, 1, "头套"),
		slot("neck", "头颈保护", false, 1, "头颈保护"),
		slot("suit", "赛车服", false, 1, "赛车服"),
		slot("underwear", "内衣", false, 1, "内衣"),
		slot("rib-protector", "护肋", true, 1, "护肋"),
		slot("gloves", "手套", false, 1, "手套"),
		slot("shoes", "赛车鞋", false, 1, "赛车鞋"),
		slot("accessory-1", "饰品", false, 2, "饰品"),
		slot("accessory-2", "饰品", false, 1, "饰品"),
	}
}

// Items returns the thirteen items of the test catalog.
func Items() []model.EquipmentItem {
	item := func(id, typ string, allowed ...string) model.EquipmentItem {
		if allowed == nil {
			allowed = []string{}
		}
		return model.EquipmentItem{
			ID:           id,
			Type:         typ,
			Brand:        "Brand " + id,
			Model:        "Model " + id,
			DisplayName:  "Item " + id,
			Icon:         "/icons/" + id + ".svg",
			Image:        "/images/" + id + ".svg",
			Summary:      "Summary of " + id,
			AllowedSlots: allowed,
		}
	}
	return []model.EquipmentItem{
		item("helmet-001", "头盔"),
		item("helmet-002", "头盔"),
		item("balaclava-001", "头套"),
		item("hans-001", "头颈保护"),
		item("suit-001", "赛车服"),
		item("underwear-001", "内衣"),
		item("rib-001", "护肋"),
		item("gloves-001", "手套"),
		item("shoes-001", "赛车鞋"),
		item("acc-001", "饰品"),
		item("acc-002", "饰品"),
		item("acc-003", "饰品"),
		item("acc-004", "饰品", "accessory-2"),
	}
}

// Catalog returns the typed test catalog.
func Catalog() *model.Catalog {
	return model.NewCatalog(
		model.Character{Image: "/character.svg", Name: "Driver"},
		Slots(),
		Items(),
		model.UIConfig{Title: "Racing Equipment", Labels: map[string]string{"reset": "重置"}},
	)
}

// CatalogDocument returns the test catalog as a generic JSON document,
// suitable for mutation before encoding.
func CatalogDocument(t testing.TB) map[string]any {
	t.Helper()

	data, err := json.Marshal(Catalog())
	if err != nil {
		t.Fatalf("marshaling catalog: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling catalog: %v", err)
	}
	return doc
}

// CatalogJSON encodes the test catalog after applying mutators to its document form.
func CatalogJSON(t testing.TB, mutators ...func(doc map[string]any)) []byte {
	t.Helper()

	doc := CatalogDocument(t)
	for _, m := range mutators {
		m(doc)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshaling document: %v", err)
	}
	return data
}

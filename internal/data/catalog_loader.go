package data

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/udisondev/gearcfg/internal/model"
)

// RecommendedMinItems — ниже этого числа валидных предметов загрузчик пишет предупреждение.
const RecommendedMinItems = 12

type rawObject map[string]json.RawMessage

// Loader загружает и валидирует каталог.
//
// Валидация двухуровневая:
//   - структура (character, 10 слотов, ui) — fail-fast, каталог не возвращается;
//   - предметы — невалидные отбрасываются с предупреждением, загрузка продолжается.
type Loader struct {
	src      Source
	warnings []ItemWarning
}

// NewLoader creates a Loader reading from src.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Warnings returns the items dropped by the last LoadConfig call.
func (l *Loader) Warnings() []ItemWarning {
	return l.warnings
}

// LoadConfig fetches the document, validates it and returns the catalog.
// Errors are either *TransportError or *StructuralError.
func (l *Loader) LoadConfig(ctx context.Context) (*model.Catalog, error) {
	l.warnings = nil

	body, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, &TransportError{Source: l.src.String(), Err: err}
	}

	cat, warnings, err := ParseCatalog(body)
	if err != nil {
		var malformed *malformedError
		if errors.As(err, &malformed) {
			return nil, &TransportError{Source: l.src.String(), Err: malformed}
		}
		return nil, err
	}
	l.warnings = warnings

	slog.Info("catalog loaded",
		"source", l.src.String(),
		"slots", len(cat.Slots),
		"items", len(cat.Items),
		"dropped", len(warnings))

	return cat, nil
}

// malformedError marks a payload that is not valid JSON at all.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "malformed payload: " + e.err.Error() }

func (e *malformedError) Unwrap() error { return e.err }

// ParseCatalog validates a raw catalog document.
//
// Returns the catalog together with the warnings for dropped items.
func ParseCatalog(body []byte) (*model.Catalog, []ItemWarning, error) {
	if !json.Valid(body) {
		var v any
		err := json.Unmarshal(body, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, nil, &malformedError{err: err}
	}

	var doc rawObject
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, nil, structuralf("data must be an object")
	}

	character, err := parseCharacter(doc)
	if err != nil {
		return nil, nil, err
	}

	slots, err := parseSlots(doc)
	if err != nil {
		return nil, nil, err
	}

	ui, err := parseUI(doc)
	if err != nil {
		return nil, nil, err
	}

	items, warnings := filterItems(doc["items"])

	return model.NewCatalog(character, slots, items, ui), warnings, nil
}

func parseCharacter(doc rawObject) (model.Character, error) {
	var character model.Character

	raw, ok := objectField(doc, "character")
	if !ok {
		return character, structuralf("character section is missing or invalid")
	}
	image, ok := stringField(raw, "image")
	if !ok || image == "" {
		return character, structuralf("character.image is missing or invalid")
	}
	character.Image = image
	character.Name, _ = stringField(raw, "name")

	return character, nil
}

func parseSlots(doc rawObject) ([]model.SlotConfig, error) {
	var rawSlots []json.RawMessage
	if err := json.Unmarshal(doc["slots"], &rawSlots); err != nil || rawSlots == nil {
		return nil, structuralf("slots must be an array")
	}
	if len(rawSlots) != model.SlotCount {
		return nil, structuralf("must contain exactly %d slots, found %d", model.SlotCount, len(rawSlots))
	}

	slots := make([]model.SlotConfig, 0, len(rawSlots))
	seen := make(map[string]struct{}, len(rawSlots))

	for i, rs := range rawSlots {
		var obj rawObject
		if err := json.Unmarshal(rs, &obj); err != nil || obj == nil {
			return nil, structuralf("slot at index %d must be an object", i)
		}

		id, ok := stringField(obj, "id")
		if !ok || id == "" {
			return nil, structuralf("slot at index %d has missing or invalid id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, structuralf("slot %q is defined more than once", id)
		}
		seen[id] = struct{}{}

		slot, err := parseSlot(id, obj)
		if err != nil {
			return nil, err
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

// parseSlot строго разбирает поля, от которых зависит совместимость
// (allowedTypes, maxCount, required). Вёрстка и подписи разбираются мягко:
// значение неверного типа просто не попадает в слот.
func parseSlot(id string, obj rawObject) (model.SlotConfig, error) {
	slot := model.SlotConfig{ID: id}

	var types []json.RawMessage
	if err := json.Unmarshal(obj["allowedTypes"], &types); err != nil || types == nil {
		return slot, structuralf("slot %q has invalid allowedTypes (must be an array)", id)
	}
	if len(types) == 0 {
		return slot, structuralf("slot %q has empty allowedTypes array (must contain at least one type)", id)
	}
	slot.AllowedTypes = make([]string, len(types))
	for i, rt := range types {
		if err := json.Unmarshal(rt, &slot.AllowedTypes[i]); err != nil {
			return slot, structuralf("slot %q has non-string allowedTypes[%d]", id, i)
		}
	}

	if raw, ok := obj["maxCount"]; ok {
		if err := json.Unmarshal(raw, &slot.MaxCount); err != nil {
			return slot, structuralf("slot %q has invalid maxCount %s (must be an integer)", id, raw)
		}
	}
	if slot.MaxCount < 1 {
		return slot, structuralf("slot %q has invalid maxCount %d (must be positive)", id, slot.MaxCount)
	}

	if raw, ok := obj["required"]; ok {
		if err := json.Unmarshal(raw, &slot.Required); err != nil {
			return slot, structuralf("slot %q has invalid required flag %s", id, raw)
		}
	}

	slot.Type, _ = stringField(obj, "type")
	slot.DisplayName, _ = stringField(obj, "displayName")

	if pos, ok := objectField(obj, "position"); ok {
		slot.Position = model.SlotPosition{Top: layoutValue(pos, "top"), Left: layoutValue(pos, "left")}
	}
	if size, ok := objectField(obj, "size"); ok {
		slot.Size = model.SlotSize{Width: layoutValue(size, "width"), Height: layoutValue(size, "height")}
	}

	return slot, nil
}

func parseUI(doc rawObject) (model.UIConfig, error) {
	var ui model.UIConfig

	raw, ok := objectField(doc, "ui")
	if !ok {
		return ui, structuralf("ui section is missing or invalid")
	}
	ui.Title, _ = stringField(raw, "title")
	ui.Labels = map[string]string{}
	if labels, ok := objectField(raw, "labels"); ok {
		for key := range labels {
			if v, ok := stringField(labels, key); ok {
				ui.Labels[key] = v
			}
		}
	}
	return ui, nil
}

// filterItems отбрасывает предметы без обязательных полей.
// Каталог остаётся рабочим с любым числом валидных предметов, включая ноль.
func filterItems(raw json.RawMessage) ([]model.EquipmentItem, []ItemWarning) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil || rawItems == nil {
		slog.Warn("catalog items is not an array, using empty list")
		return []model.EquipmentItem{}, nil
	}

	items := make([]model.EquipmentItem, 0, len(rawItems))
	seen := make(map[string]struct{}, len(rawItems))
	var warnings []ItemWarning

	for i, ri := range rawItems {
		item, w := parseItem(i, ri)
		if w == nil {
			if _, dup := seen[item.ID]; dup {
				w = &ItemWarning{Index: i, ID: item.ID, Reason: "duplicate id"}
			}
		}
		if w != nil {
			warnings = append(warnings, *w)
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}

	if len(warnings) > 0 {
		dropped := make([]string, len(warnings))
		for i, w := range warnings {
			dropped[i] = w.String()
		}
		slog.Warn("filtered out invalid catalog items",
			"count", len(warnings),
			"items", strings.Join(dropped, "; "))
	}

	if len(items) < RecommendedMinItems {
		slog.Warn("catalog has fewer valid items than recommended",
			"valid", len(items),
			"recommended", RecommendedMinItems,
			"filtered", len(rawItems)-len(items))
	}

	return items, warnings
}

func parseItem(index int, raw json.RawMessage) (model.EquipmentItem, *ItemWarning) {
	var item model.EquipmentItem

	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return item, &ItemWarning{Index: index, Reason: "not an object"}
	}

	id, _ := stringField(obj, "id")

	var missing []string
	for _, field := range model.RequiredItemFields {
		if v, ok := stringField(obj, field); !ok || v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return item, &ItemWarning{
			Index:  index,
			ID:     id,
			Reason: "missing or empty " + strings.Join(missing, ", "),
		}
	}

	item.ID = id
	item.Type, _ = stringField(obj, "type")
	item.Brand, _ = stringField(obj, "brand")
	item.Model, _ = stringField(obj, "model")
	item.DisplayName, _ = stringField(obj, "displayName")
	item.Icon, _ = stringField(obj, "icon")
	item.Image, _ = stringField(obj, "image")
	item.Summary, _ = stringField(obj, "summary")

	// Необязательные поля неверного типа обнуляются, предмет остаётся в каталоге.
	item.Tags = stringList(obj, "tags")
	item.Aliases = stringList(obj, "aliases")
	item.AllowedSlots = stringList(obj, "allowedSlots")
	if item.AllowedSlots == nil {
		item.AllowedSlots = []string{}
	}
	item.CertComparison, _ = stringField(obj, "certComparison")
	item.Advantages = stringList(obj, "advantages")
	item.Disadvantages = stringList(obj, "disadvantages")
	item.ApplicableScenarios, _ = stringField(obj, "applicableScenarios")

	if specs, ok := objectField(obj, "specs"); ok {
		item.Specs = &model.ItemSpecs{
			WeightG: numberField(specs, "weight_g"),
			Vents:   numberField(specs, "vents"),
			Certs:   stringList(specs, "certs"),
		}
	}

	return item, nil
}

func objectField(obj rawObject, key string) (rawObject, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	var out rawObject
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

func stringField(obj rawObject, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func numberField(obj rawObject, key string) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

// stringList принимает массив строк или одну строку.
// Нестроковые элементы пропускаются; любое другое значение даёт nil.
func stringList(obj rawObject, key string) []string {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if s, ok := stringField(obj, key); ok {
		return []string{s}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// layoutValue возвращает CSS-значение вёрстки: строку как есть, число как его JSON-запись.
func layoutValue(obj rawObject, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	if s, ok := stringField(obj, key); ok {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

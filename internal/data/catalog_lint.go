package data

import (
	"fmt"

	"github.com/udisondev/gearcfg/internal/model"
)

// Finding is a non-fatal observation about a loaded catalog.
type Finding struct {
	Subject string
	Message string
}

func (f Finding) String() string {
	return f.Subject + ": " + f.Message
}

// Lint runs content checks that go beyond load-time validation.
// None of them prevent the catalog from being used.
func Lint(cat *model.Catalog) []Finding {
	var findings []Finding
	add := func(subject, format string, args ...any) {
		findings = append(findings, Finding{Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	if len(cat.RequiredSlots()) == 0 {
		add("slots", "no slot is marked as required, completeness is always true")
	}

	acceptedTypes := make(map[string]struct{})
	for _, s := range cat.Slots {
		if s.DisplayName == "" {
			add("slot "+s.ID, "missing displayName")
		}
		for _, t := range s.AllowedTypes {
			acceptedTypes[t] = struct{}{}
		}
	}

	itemTypes := make(map[string]struct{})
	for i := range cat.Items {
		item := &cat.Items[i]
		itemTypes[item.Type] = struct{}{}

		if _, ok := acceptedTypes[item.Type]; !ok {
			add("item "+item.ID, "type %q is not accepted by any slot", item.Type)
		}
		for _, slotID := range item.AllowedSlots {
			if cat.Slot(slotID) == nil {
				add("item "+item.ID, "allowedSlots references unknown slot %q", slotID)
			}
		}
		if !item.IsUnrestricted() && len(model.CompatibleSlots(item, cat.Slots)) == 0 {
			add("item "+item.ID, "no slot satisfies both allowedSlots and type")
		}
	}

	for _, s := range cat.Slots {
		for _, t := range s.AllowedTypes {
			if _, ok := itemTypes[t]; !ok {
				add("slot "+s.ID, "no items found for type %q", t)
			}
		}
	}

	if len(cat.Items) < RecommendedMinItems {
		add("items", "recommended at least %d items, found %d", RecommendedMinItems, len(cat.Items))
	}
	if cat.UI.Title == "" {
		add("ui", "missing title")
	}
	if len(cat.UI.Labels) == 0 {
		add("ui", "missing or empty labels")
	}

	return findings
}

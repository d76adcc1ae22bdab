// Package rulestore houses the in-memory rule store backing the automation
// engine. It owns all rule records: creation with defaults, shallow-merge
// updates, deletion, enable/disable toggling, idempotent seeding and the
// priority-descending ordering invariant. Persistence of the surrounding
// aggregate is the engine's concern; the store only signals mutations through
// an optional change hook so the wiring layer decides when and where to save.
package rulestore

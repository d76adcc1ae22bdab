// Package action implements the sequential action executor. Each action of a
// matched rule is dispatched to a typed handler through a registry keyed by
// core.ActionType; handlers call out to the injected collaborators (message
// sender, CRM, task store, webhook targets, AI generator, ...).
//
// The executor enforces the engine's partial-failure policy: every dispatch
// yields an ActionResult with a success flag, handler errors and panics are
// converted to failure results instead of propagating, stop_on_error skips the
// remaining actions of the owning rule only, and per-action delays suspend the
// sequence without blocking unrelated work.
package action

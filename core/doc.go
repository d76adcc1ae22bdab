// Package core provides the foundational domain types, interfaces and
// contracts used by AutoMesh. It defines the core abstractions for:
//
//   - Events (typed notifications raised by upstream collaborators)
//   - Rules (prioritized bindings of a trigger, a condition tree and actions)
//   - Actions and their execution results
//   - Collaborator interfaces the engine calls to perform concrete effects
//   - Pluggable state storage for the persisted rule/stats/settings aggregate
//
// The package intentionally keeps implementation concerns (persistence,
// condition evaluation, the processing loop, concrete handlers) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core

// Package engine contains the automation core: a bounded event queue feeding
// a single-consumer processing loop that matches prioritized rules, evaluates
// their condition trees and runs their actions strictly in order.
//
// Ordering guarantees: events are processed in strict FIFO arrival order;
// within one event, matching rules run in priority-descending order; within
// one rule, actions run in listed order. At most one event is in flight at
// any instant, so a later event never interleaves with an earlier one's side
// effects.
//
// Resource bounds: the queue and the audit log both discard their oldest
// entries on overflow, so sustained overload degrades by losing events rather
// than by blocking producers or growing without bound.
package engine

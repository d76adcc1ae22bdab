// Package httpapi exposes the automation engine over a JSON/HTTP admin
// surface: rule CRUD, event emission, settings, statistics, and the
// execution log. The handler is a plain http.Handler and can be mounted
// into any mux.
package httpapi

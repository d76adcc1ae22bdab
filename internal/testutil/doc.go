// Package testutil contains helper builders and spies used across tests to
// reduce boilerplate when constructing rules and events and when asserting
// which collaborator side effects a rule produced. These helpers are
// intentionally minimal and not intended for production usage.
package testutil

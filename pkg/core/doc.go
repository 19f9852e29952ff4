// Package core defines the shared domain contracts for Careboard's
// query-execution core: widget definitions, global filters, execution
// results, query templates and optimization scenarios.
//
// The package is deliberately thin so that every layer (adapters,
// dispatcher, store, server) can exchange these types without import
// cycles.
package core

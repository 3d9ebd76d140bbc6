// Package model defines the core data types shared across the collection
// pipeline: upstream opportunity records, stored records, query windows,
// and per-cycle statistics.
//
// Opportunity is deliberately a partial view of the upstream schema.
// The pipeline only consumes a handful of fields; everything else is kept
// as an opaque attribute bag so that upstream schema changes pass through
// the store without modification.
package model

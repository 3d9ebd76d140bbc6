// Package collector runs collection cycles: it fans one search out per
// NAICS code, merges the per-code results into a unique set, filters by
// opportunity type, and feeds novel records into the durable store.
package collector

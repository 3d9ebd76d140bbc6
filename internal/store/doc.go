// Package store provides the durable, deduplicating opportunity store.
//
// The store is a single JSON file mapping notice IDs to stored entries.
// The whole file is loaded at open and held in memory; Persist writes it
// back atomically. First write wins: once a notice ID is accepted, later
// sightings of the same ID never replace the stored payload.
package store

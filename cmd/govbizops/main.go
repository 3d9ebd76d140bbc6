// Package main provides the entry point for the govbizops CLI.
//
// govbizops collects federal contract opportunities from the SAM.gov
// search API, deduplicates them into a durable local store, and pushes
// each cycle's newly discovered records to downstream consumers.
//
// Usage:
//
//	govbizops collect
//	govbizops schedule --interval 24h
//
// See --help for all available options.
package main

// main is the entry point for govbizops.
func main() {
	Execute()
}

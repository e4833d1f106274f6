// Package main provides the entry point for the civimon CLI.
//
// civimon monitors Norwegian municipal websites for policy and governance
// documents. It crawls each jurisdiction's site, stores content-addressed
// document versions, and optionally classifies new documents with a
// language model.
//
// Usage:
//
//	civimon ingest kommuner.csv
//	civimon crawl
//	civimon report
//
// See --help for all available options.
package main

// main is the entry point for civimon.
func main() {
	Execute()
}

// Package model defines the domain types shared across civimon.
//
// The types fall into three groups:
//   - Input: Jurisdiction rows loaded from the jurisdiction list.
//   - Crawl output: CandidateDoc and CrawlResult produced by the dispatcher.
//   - Run output: CoverageRow, Finding, and Classification, which feed the
//     store and the report writers.
//
// Design decision: model has no dependencies on other civimon packages so
// that every layer (crawler, store, pipeline, report) can share these types
// without import cycles.
package model

// Package report writes crawl run results in multiple output formats.
//
// A run is exported as two documents: the coverage report (one row per
// jurisdiction with its OK/WARN/FAIL status and crawl counters) and the
// findings report (classified documents). Both are produced by writers
// implementing the Writer interface, with CSV, Markdown, JSON, and plain
// text implementations, and a MultiWriter that fans out to several
// destinations at once.
package report

// Package pipeline runs each jurisdiction through the monitoring stages.
//
// One jurisdiction's run is a sequence of steps sharing a
// JurisdictionReport: crawl (traverse the site and collect candidates),
// download (fetch, hash, and version each candidate), classify (send
// eligible text to the language-model classifier), and coverage (derive and
// persist the OK/WARN/FAIL row). The coverage step runs even when an
// earlier step failed, so every jurisdiction leaves a row behind.
//
// The pipeline supports batch processing across jurisdictions with
// concurrency control using errgroup; jurisdictions are independent apart
// from the shared per-host rate limiter.
package pipeline

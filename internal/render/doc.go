// Package render drives a headless browser for pages that assemble their
// content client-side. The crawler falls back to it when a page has many
// script tags but almost no visible text and no extractable links.
//
// Rendering is optional at runtime: when no browser is available the
// crawler simply records that the page would have needed rendering.
package render

// Package catalog parses property catalog feeds into validated records.
//
// The expected source is an XML feed with one <property> element per listing.
// Loading is all-or-nothing with respect to identifier ambiguity: duplicate
// IDs reject the whole feed. Individually malformed entries are skipped with
// warnings by default, or fail the load in strict mode.
package catalog

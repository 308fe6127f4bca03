// Package courier contains the courier-code alias resolution algorithm.
// Free-text courier names from uploaded files are translated into the
// internal canonical code and from there into market-specific codes. Wrong
// resolution breaks the customer-facing shipment page, so precedence rules
// are deliberate and tested.
package courier

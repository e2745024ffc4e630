// Package rules is the catalog of supported 9-ball variants.
//
// Every variant is described by a Rules value: a capability table of ball
// counts, target units and pure scoring functions. The match controller
// never branches on a variant name; it asks the catalog.
//
// The catalog is read-only. Lookup returns a value copy, so callers cannot
// change a variant's behaviour for anyone else.
package rules

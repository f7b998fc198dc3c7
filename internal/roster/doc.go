// Package roster models the mentor roster document and implements capacity
// closure over it.
//
// It offers ParseDocument and BuildIndex for the read-only decision pass,
// Decide for selecting mentors whose capacity is exhausted, and Patch for the
// format-preserving text edit that removes a month from a mentor's
// availability and marks the mentor deprioritized without disturbing any
// other byte of the document.
package roster

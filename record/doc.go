// Package record defines the canonical in-memory representation of
// vulnerability records and the vendor guidance attached to them.
//
// Records and notes are created once at ingestion and never mutated.
// When multiple vendor notes exist for one vulnerability, ResolveNotes
// picks the authoritative one: most recently issued wins, ties broken by
// higher declared priority.
package record

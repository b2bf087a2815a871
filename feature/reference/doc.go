// Package reference resolves free-text author, artist, category and tag
// names to row ids with find-or-create semantics.
//
// Names are trimmed and whitespace collapsed; the cache and the unique
// name_key column use the lowercased form while the stored name keeps the
// casing of its first sighting. Blank and placeholder names resolve to
// "Unknown <Kind>". A unique conflict on insert is answered by exactly one
// more lookup.
package reference

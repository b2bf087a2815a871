// Package schema validates and normalizes raw JSON records into typed
// users, series and chapters.
//
// Source files disagree on field names, so every logical attribute has an
// ordered list of candidate keys (dotted keys reach nested metadata) and the
// first non-empty value wins. Numbers may arrive as JSON numbers or strings.
// Dates accept RFC 3339, ISO, US and human forms ("August 13th 2025"), unix
// timestamps and relative forms ("3 days ago"); anything else falls back to
// the validator's fixed clock instead of failing the record.
//
// A chapter's number comes from an explicit numeric field, then from a
// number found in its title ("Chapter 12.5", "Ch. 7", "#3"). A chapter with
// neither is invalid.
//
// Validation failures are returned as *ValidationError and never panic.
package schema

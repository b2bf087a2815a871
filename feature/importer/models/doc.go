// Package models defines the gorm models of the imported catalog:
// users, series, chapters and their child rows, plus the shared reference
// tables (authors, artists, categories, tags).
//
// Every table has a natural unique key (email, slug, series/number, name_key)
// that the importer uses for insert-on-conflict-update.
package models

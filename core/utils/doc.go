// Package utils provides common utility functions for the content importer.
// It includes lenient value coercion for JSON-decoded records, whitespace and
// accent normalization, and slug generation shared by the validator and the
// reference resolver.
package utils

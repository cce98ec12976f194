// Package html provides a Normaliser implementation for HTML documents.
// It walks the parsed node tree, skipping scripts, styles and navigation,
// and is also used by the web extractor and the eml normaliser.
package html

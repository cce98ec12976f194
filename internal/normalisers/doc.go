// Package normalisers groups the Normaliser implementations, one per file
// format. The file extractor selects one by extension.
package normalisers

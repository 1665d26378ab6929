// Package normalisers extracts plain text from uploaded contracts.
//
// Each format lives in its own subpackage and implements driven.Normaliser.
// Registry dispatches on file extension and chunks the result into
// fragments, implementing driven.TextExtractor.
package normalisers

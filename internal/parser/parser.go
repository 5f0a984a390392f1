// Package parser defines the raw, untyped shape produced by input parsers:
// a header and string rows that still carry their source line numbers.
package parser

import "io"

// Row is one data row as read from the source.
type Row struct {
	// Line is the 1-based source file line the row starts on (the header
	// is line 1).
	Line   int
	Fields []string
}

// SkippedRow records a row the parser could not use.
type SkippedRow struct {
	Line   int
	Reason string
}

// Frame is the parsed, untyped content of one input file.
type Frame struct {
	Header  []string
	Rows    []Row
	Skipped []SkippedRow
	// Encoding names the character set the input was decoded from.
	Encoding string
}

// Parser turns raw bytes into a Frame.
type Parser interface {
	Parse(r io.Reader) (Frame, error)
}

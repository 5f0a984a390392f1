// Package csv implements the delimited-file parser for statistics inputs. It
// reads the whole file (inputs are small and resident), detects whether the
// bytes are UTF-8 or Windows-1252, normalizes text to NFC and hands the rows
// to encoding/csv.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"labourstat/internal/parser"
)

// Encoding names accepted by Options.Encoding.
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv: empty input")

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value. The
	// statistics exports pad every cell with a leading space.
	TrimSpace bool

	// Encoding is one of EncodingAuto (default), EncodingUTF8 or
	// EncodingWindows1252. Auto decodes as Windows-1252 only when the input is
	// not valid UTF-8.
	Encoding string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

var _ parser.Parser = (*Parser)(nil)

// Parse reads the header and all data rows of r. Rows that fail to parse or
// whose width differs from the header are skipped and reported in
// Frame.Skipped. Only an unreadable input or a missing header is an error.
func (p *Parser) Parse(r io.Reader) (parser.Frame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return parser.Frame{}, fmt.Errorf("read csv: %w", err)
	}

	text, enc, err := decode(raw, p.opt.Encoding)
	if err != nil {
		return parser.Frame{}, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced against the header below so one ragged row does not
	// abort the whole read.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return parser.Frame{}, ErrEmptyInput
	}
	if err != nil {
		return parser.Frame{}, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	out := parser.Frame{Header: header, Encoding: enc}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			} else {
				line++
			}
			out.Skipped = append(out.Skipped, parser.SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		// A quoted field may span lines, so take the record's own start line.
		line, _ = cr.FieldPos(0)
		if len(row) != len(header) {
			out.Skipped = append(out.Skipped, parser.SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("incorrect number of fields (expected %d, got %d)", len(header), len(row)),
			})
			continue
		}
		if p.opt.TrimSpace {
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
		}
		out.Rows = append(out.Rows, parser.Row{Line: line, Fields: row})
	}
	return out, nil
}

const utf8BOM = "\uFEFF"

// decode converts raw bytes to NFC-normalized UTF-8 without a leading BOM and
// reports the source encoding that was used.
func decode(raw []byte, encoding string) ([]byte, string, error) {
	enc := strings.ToLower(strings.TrimSpace(encoding))
	if enc == "" {
		enc = EncodingAuto
	}

	var t transform.Transformer
	switch enc {
	case EncodingAuto:
		if utf8.Valid(raw) {
			enc = EncodingUTF8
			t = norm.NFC
		} else {
			enc = EncodingWindows1252
			t = transform.Chain(charmap.Windows1252.NewDecoder(), norm.NFC)
		}
	case EncodingUTF8, "utf8":
		enc = EncodingUTF8
		t = norm.NFC
	case EncodingWindows1252, "cp1252":
		enc = EncodingWindows1252
		t = transform.Chain(charmap.Windows1252.NewDecoder(), norm.NFC)
	default:
		return nil, "", fmt.Errorf("csv: unsupported encoding %q", encoding)
	}

	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return bytes.TrimPrefix(out, []byte(utf8BOM)), enc, nil
}

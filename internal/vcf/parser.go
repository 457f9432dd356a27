// Package vcf provides VCF header and record helpers.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultColumnHeader is used when an input carries no #CHROM line.
const DefaultColumnHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT"

// Header holds the header section of a VCF file.
type Header struct {
	Meta    []string // "##" lines in input order
	Columns string   // "#CHROM" line, "" if absent
}

// HeaderReader reads the header section of a VCF stream and then hands out
// body lines one at a time.
type HeaderReader struct {
	reader     *bufio.Reader
	lineNumber int
	header     Header
	pending    string // first body line consumed while looking for #CHROM
	hasPending bool
}

// NewHeaderReader reads header lines from r up to and including the #CHROM
// line. A body line found before any #CHROM line ends the header and is
// returned by the first call to Next.
func NewHeaderReader(r io.Reader) (*HeaderReader, error) {
	hr := &HeaderReader{reader: bufio.NewReaderSize(r, 1<<20)}
	if err := hr.parseHeader(); err != nil {
		return nil, err
	}
	return hr, nil
}

// parseHeader reads and stores VCF header lines.
func (hr *HeaderReader) parseHeader() error {
	for {
		line, err := hr.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		switch {
		case strings.HasPrefix(line, "##"):
			hr.header.Meta = append(hr.header.Meta, line)
		case strings.HasPrefix(line, "#CHROM"):
			if n := strings.Count(line, "\t") + 1; n < ColFormat {
				return &ParseError{
					Line:    hr.lineNumber,
					Message: fmt.Sprintf("expected at least %d columns in #CHROM line, found %d", ColFormat, n),
				}
			}
			hr.header.Columns = line
			return nil
		case line == "":
			continue
		default:
			hr.pending = line
			hr.hasPending = true
			return nil
		}
	}
}

// Next returns the next body line without its line terminator.
// It returns io.EOF when the input is exhausted.
func (hr *HeaderReader) Next() (string, error) {
	if hr.hasPending {
		hr.hasPending = false
		return hr.pending, nil
	}
	line, err := hr.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

func (hr *HeaderReader) readLine() (string, error) {
	line, err := hr.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			hr.lineNumber++
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	hr.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// Header returns the parsed header section.
func (hr *HeaderReader) Header() Header {
	return hr.header
}

// LineNumber returns the number of lines read so far.
func (hr *HeaderReader) LineNumber() int {
	return hr.lineNumber
}

// FileFormat returns the ##fileformat line, or "" if absent.
func (h Header) FileFormat() string {
	for _, line := range h.Meta {
		if strings.HasPrefix(line, "##fileformat=") {
			return line
		}
	}
	return ""
}

// SampleNames returns the sample columns of the #CHROM line.
func (h Header) SampleNames() []string {
	fields := strings.Split(h.Columns, "\t")
	if len(fields) > ColFirstSample {
		return fields[ColFirstSample:]
	}
	return nil
}

// IDs returns the IDs declared by structured meta lines of the given kind,
// e.g. "INFO" or "FORMAT".
func (h Header) IDs(kind string) map[string]bool {
	ids := make(map[string]bool)
	for _, line := range h.Meta {
		if k, id, ok := MetaID(line); ok && k == kind {
			ids[id] = true
		}
	}
	return ids
}

// MetaID extracts the kind and ID of a structured meta line such as
// ##INFO=<ID=DP,Number=1,...>.
func MetaID(line string) (kind, id string, ok bool) {
	rest, found := strings.CutPrefix(line, "##")
	if !found {
		return "", "", false
	}
	kind, rest, found = strings.Cut(rest, "=")
	if !found || !strings.HasPrefix(rest, "<") {
		return "", "", false
	}
	rest = strings.TrimSuffix(rest[1:], ">")
	for _, field := range strings.Split(rest, ",") {
		if v, found := strings.CutPrefix(strings.TrimSpace(field), "ID="); found {
			return kind, v, v != ""
		}
	}
	return "", "", false
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

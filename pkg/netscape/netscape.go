// Package netscape reads and writes cookie files in the Netscape text format
// understood by curl, wget and yt-dlp.
//
// Each record is a single line of seven fields:
//
//	domain  include-subdomains  path  secure  expiration  name  value
//
// Lines starting with '#' are comments, except for the "#HttpOnly_" prefix
// which marks an HttpOnly record.
package netscape

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	// FieldCount is the number of fields every record must have.
	FieldCount = 7
	// HTTPOnlyPrefix marks a record that should not be exposed to scripts.
	HTTPOnlyPrefix = "#HttpOnly_"
	// Header is the conventional first line of a Netscape cookie file.
	Header = "# Netscape HTTP Cookie File"
	// MaxLineSize bounds a single line, newline included.
	MaxLineSize = 1024 * 1024
)

// Record is a single cookie line.
type Record struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	// Expires is the expiration as unix seconds; 0 marks a session cookie.
	Expires  int64
	Name     string
	Value    string
	HTTPOnly bool
	// Line is the 1-based line number the record was read from.
	Line int
}

// File is the parsed content of a cookie file.
type File struct {
	// Lines is the total number of lines, comments and blanks included.
	Lines int
	// HasHeader is true when the first comment names the HTTP cookie file format.
	HasHeader bool
	// Records holds the cookie lines in file order.
	Records []Record
}

// LineError reports a line that could not be decomposed into a record.
type LineError struct {
	Line   int
	Fields int
	Reason string
}

func (e *LineError) Error() string {
	if e.Fields == 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}

	return fmt.Sprintf("line %d: %s (got %d fields)", e.Line, e.Reason, e.Fields)
}

// Parse reads a cookie file. Parsing stops at the first malformed line and
// returns the records read so far together with a *LineError.
func Parse(r io.Reader) (*File, error) {
	f, lineErrs, err := parse(r, true)
	if err != nil {
		return f, err
	}
	if len(lineErrs) > 0 {
		return f, lineErrs[0]
	}

	return f, nil
}

// ParseLenient reads a cookie file, skipping malformed lines instead of
// stopping at them. The skipped lines are reported as LineErrors; the error
// result is only set when reading fails or a line exceeds MaxLineSize.
func ParseLenient(r io.Reader) (*File, []*LineError, error) {
	return parse(r, false)
}

func parse(r io.Reader, stopOnError bool) (*File, []*LineError, error) {
	f := &File{}
	seenComment := false
	var lineErrs []*LineError

	scanner := bufio.NewScanner(r)
	// long consent/auth values exceed bufio's default 64KiB token limit
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		f.Lines++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		switch {
		case strings.HasPrefix(line, HTTPOnlyPrefix):
			httpOnly = true
			line = line[len(HTTPOnlyPrefix):]
		case strings.HasPrefix(line, "#"):
			if !seenComment {
				seenComment = true
				f.HasHeader = isHeader(line)
			}

			continue
		}

		rec, err := parseRecord(line, f.Lines)
		if err != nil {
			lineErrs = append(lineErrs, err)
			if stopOnError {
				return f, lineErrs, nil
			}

			continue
		}
		rec.HTTPOnly = httpOnly
		f.Records = append(f.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return f, lineErrs, &LineError{
				Line:   f.Lines + 1,
				Reason: fmt.Sprintf("line is longer than %d bytes", MaxLineSize),
			}
		}

		return f, lineErrs, fmt.Errorf("could not read cookie file: %w", err)
	}

	return f, lineErrs, nil
}

// ParseBytes parses an in-memory cookie file.
func ParseBytes(b []byte) (*File, error) {
	return Parse(bytes.NewReader(b))
}

func isHeader(line string) bool {
	return strings.Contains(strings.ToLower(line), "http cookie file")
}

// splitFields splits on tabs when the line has any, otherwise on whitespace.
func splitFields(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}

	return strings.Fields(line)
}

func parseRecord(line string, lineNo int) (Record, *LineError) {
	fields := splitFields(line)
	if len(fields) != FieldCount {
		return Record{}, &LineError{Line: lineNo, Fields: len(fields), Reason: "expected 7 fields"}
	}

	expires, err := parseExpiry(fields[4])
	if err != nil {
		return Record{}, &LineError{Line: lineNo, Fields: len(fields), Reason: "invalid expiration"}
	}

	return Record{
		Domain:            fields[0],
		IncludeSubdomains: strings.EqualFold(fields[1], "TRUE"),
		Path:              fields[2],
		Secure:            strings.EqualFold(fields[3], "TRUE"),
		Expires:           expires,
		Name:              fields[5],
		Value:             fields[6],
		Line:              lineNo,
	}, nil
}

// Expirations are clamped to the range time.Time can render, year 1 through
// year 9999. Some exporters write "never" as a huge epoch.
const (
	minExpires int64 = -62135596800
	maxExpires int64 = 253402300799
)

// parseExpiry accepts integer epochs and truncates decimal ones, which some
// browser extensions emit.
func parseExpiry(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return min(max(n, minExpires), maxExpires), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse expiration %q: %w", s, err)
	}

	// float to int conversion is implementation defined out of int64 range
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("expiration %q is not a number", s)
	case f >= float64(maxExpires):
		return maxExpires, nil
	case f <= float64(minExpires):
		return minExpires, nil
	}

	return int64(f), nil
}

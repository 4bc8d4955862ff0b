package netscape

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Key identifies a cookie independently of its value and expiration.
type Key struct {
	Domain string
	Name   string
}

// Key returns the (domain, name) identity of the record.
func (r Record) Key() Key {
	return Key{Domain: r.Domain, Name: r.Name}
}

// Session reports whether the record is a session cookie (no expiration).
func (r Record) Session() bool {
	return r.Expires == 0
}

// ExpiredAt reports whether the record's expiration lies before now.
// Session cookies carry epoch 0 and therefore always count as expired.
func (r Record) ExpiredAt(now time.Time) bool {
	return r.Expires < now.Unix()
}

// MatchesHost reports whether the cookie would be sent to host.
// A domain with a leading dot, or with the include-subdomains flag, also
// matches every subdomain.
func (r Record) MatchesHost(host string) bool {
	host = strings.ToLower(host)
	domain := strings.ToLower(r.Domain)
	wildcard := r.IncludeSubdomains || strings.HasPrefix(domain, ".")
	domain = strings.TrimPrefix(domain, ".")

	if domain == "" {
		return false
	}
	if host == domain {
		return true
	}

	return wildcard && strings.HasSuffix(host, "."+domain)
}

// String formats the record as a tab separated line.
func (r Record) String() string {
	domain := r.Domain
	if r.HTTPOnly {
		domain = HTTPOnlyPrefix + domain
	}

	return strings.Join([]string{
		domain,
		formatBool(r.IncludeSubdomains),
		r.Path,
		formatBool(r.Secure),
		strconv.FormatInt(r.Expires, 10),
		r.Name,
		r.Value,
	}, "\t")
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}

	return "FALSE"
}

// Write emits header comment lines, a blank separator and the records.
// Header lines that do not start with '#' are prefixed with "# ".
func Write(w io.Writer, header []string, records []Record) error {
	bw := bufio.NewWriter(w)

	for _, h := range header {
		if !strings.HasPrefix(h, "#") {
			h = "# " + h
		}
		if _, err := fmt.Fprintln(bw, h); err != nil {
			return fmt.Errorf("could not write header: %w", err)
		}
	}
	if len(header) > 0 {
		if _, err := fmt.Fprintln(bw); err != nil {
			return fmt.Errorf("could not write header: %w", err)
		}
	}

	for _, rec := range records {
		if _, err := fmt.Fprintln(bw, rec.String()); err != nil {
			return fmt.Errorf("could not write record on line %d: %w", rec.Line, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush cookie file: %w", err)
	}

	return nil
}

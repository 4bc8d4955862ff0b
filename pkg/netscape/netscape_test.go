package netscape_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cookiestatus/pkg/netscape"

	"github.com/stretchr/testify/require"
)

func TestParse_StandardFile(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		"# https://curl.haxx.se/rfc/cookie_spec.html\n" +
		"\n" +
		".youtube.com\tTRUE\t/\tTRUE\t1893456000\tSID\tabc123\n" +
		"music.youtube.com\tFALSE\t/\tFALSE\t0\tPREF\tf6=8\n"

	f, err := netscape.ParseBytes([]byte(content))
	require.NoError(t, err)
	require.True(t, f.HasHeader)
	require.Equal(t, 5, f.Lines)
	require.Len(t, f.Records, 2)

	first := f.Records[0]
	require.Equal(t, ".youtube.com", first.Domain)
	require.True(t, first.IncludeSubdomains)
	require.Equal(t, "/", first.Path)
	require.True(t, first.Secure)
	require.Equal(t, int64(1893456000), first.Expires)
	require.Equal(t, "SID", first.Name)
	require.Equal(t, "abc123", first.Value)
	require.Equal(t, 4, first.Line)

	second := f.Records[1]
	require.False(t, second.IncludeSubdomains)
	require.False(t, second.Secure)
	require.True(t, second.Session())
	// values may contain '=' and must survive untouched
	require.Equal(t, "f6=8", second.Value)
}

func TestParse_NoHeader(t *testing.T) {
	f, err := netscape.ParseBytes([]byte("# made by hand\n.example.com\tTRUE\t/\tFALSE\t10\ta\tb\n"))
	require.NoError(t, err)
	require.False(t, f.HasHeader)
	require.Len(t, f.Records, 1)
}

func TestParse_HTTPOnlyPrefixIsRecord(t *testing.T) {
	f, err := netscape.ParseBytes([]byte("#HttpOnly_.youtube.com\tTRUE\t/\tTRUE\t1893456000\tHSID\tx\n"))
	require.NoError(t, err)
	require.Len(t, f.Records, 1)
	require.True(t, f.Records[0].HTTPOnly)
	require.Equal(t, ".youtube.com", f.Records[0].Domain)
	// an HttpOnly record is not a header comment
	require.False(t, f.HasHeader)
}

func TestParse_CRLFAndWhitespaceSeparated(t *testing.T) {
	content := "# Netscape HTTP Cookie File\r\n" +
		".youtube.com TRUE / TRUE 1893456000 SID abc\r\n" +
		"   \r\n"

	f, err := netscape.ParseBytes([]byte(content))
	require.NoError(t, err)
	require.True(t, f.HasHeader)
	require.Len(t, f.Records, 1)
	require.Equal(t, "abc", f.Records[0].Value)
}

func TestParse_DecimalExpiryIsTruncated(t *testing.T) {
	f, err := netscape.ParseBytes([]byte(".a.com\tTRUE\t/\tFALSE\t1893456000.75\tn\tv\n"))
	require.NoError(t, err)
	require.Equal(t, int64(1893456000), f.Records[0].Expires)
}

func TestParse_ExpiryOutOfRangeIsClamped(t *testing.T) {
	maxExpires := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
	minExpires := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	cases := []struct {
		expiry string
		want   int64
	}{
		{expiry: "99999999999999999999", want: maxExpires},
		{expiry: "9223372036854775807", want: maxExpires},
		{expiry: "1e20", want: maxExpires},
		{expiry: "253402300800.5", want: maxExpires},
		{expiry: "-99999999999999999999", want: minExpires},
		{expiry: "-9223372036854775808", want: minExpires},
		{expiry: "253402300799", want: maxExpires},
		{expiry: "-1", want: -1},
	}

	now := time.Unix(1_800_000_000, 0)
	for _, tc := range cases {
		t.Run(tc.expiry, func(t *testing.T) {
			f, err := netscape.ParseBytes([]byte(".x\tTRUE\t/\tTRUE\t" + tc.expiry + "\tn\tv\n"))
			require.NoError(t, err)
			require.Equal(t, tc.want, f.Records[0].Expires)
			require.Equal(t, tc.want < now.Unix(), f.Records[0].ExpiredAt(now))
		})
	}
}

func TestParse_MalformedLines(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		fields int
	}{
		{name: "six fields", line: ".a.com\tTRUE\t/\tFALSE\t10\tname", fields: 6},
		{name: "eight fields", line: ".a.com\tTRUE\t/\tFALSE\t10\tname\tvalue\textra", fields: 8},
		{name: "single word", line: "garbage", fields: 1},
		{name: "invalid expiry", line: ".a.com\tTRUE\t/\tFALSE\tsoon\tname\tvalue", fields: 7},
		{name: "nan expiry", line: ".a.com\tTRUE\t/\tFALSE\tNaN\tname\tvalue", fields: 7},
		{name: "infinite expiry", line: ".a.com\tTRUE\t/\tFALSE\t-Inf\tname\tvalue", fields: 7},
		{name: "expiry beyond float range", line: ".a.com\tTRUE\t/\tFALSE\t1e400\tname\tvalue", fields: 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := "# Netscape HTTP Cookie File\n" +
				".ok.com\tTRUE\t/\tFALSE\t10\tgood\tone\n" +
				tc.line + "\n"

			f, err := netscape.ParseBytes([]byte(content))
			require.Error(t, err)

			var lineErr *netscape.LineError
			require.True(t, errors.As(err, &lineErr), "expected *LineError, got %T", err)
			require.Equal(t, 3, lineErr.Line)
			require.Equal(t, tc.fields, lineErr.Fields)
			// records before the bad line are still returned
			require.Len(t, f.Records, 1)
		})
	}
}

func TestParse_LineTooLong(t *testing.T) {
	content := ".ok.com\tTRUE\t/\tFALSE\t10\tgood\tone\n" +
		".a.com\tTRUE\t/\tFALSE\t10\tconsent\t" + strings.Repeat("x", netscape.MaxLineSize) + "\n"

	f, err := netscape.ParseBytes([]byte(content))

	var lineErr *netscape.LineError
	require.True(t, errors.As(err, &lineErr), "expected *LineError, got %v", err)
	require.Equal(t, 2, lineErr.Line)
	require.Equal(t, "line 2: line is longer than 1048576 bytes", lineErr.Error())
	require.Len(t, f.Records, 1)

	_, _, err = netscape.ParseLenient(strings.NewReader(content))
	require.True(t, errors.As(err, &lineErr))
}

func TestRecord_RoundTrip(t *testing.T) {
	records := []netscape.Record{
		{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true, Expires: 1893456000, Name: "SID", Value: "v1"},
		{Domain: "music.youtube.com", Path: "/", Expires: 0, Name: "PREF", Value: "tz=Europe.Berlin&f6=8"},
		{Domain: ".google.com", IncludeSubdomains: true, Path: "/", Secure: true, Expires: 1, Name: "__Secure-3PSID", Value: "a"},
		{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Expires: 5, Name: "LOGIN_INFO", Value: "AFmmF2:QUQ3", HTTPOnly: true},
		{Domain: "www.youtube.com", Path: "/watch", Expires: 7, Name: "empty", Value: ""},
	}

	for _, rec := range records {
		t.Run(rec.Name, func(t *testing.T) {
			f, err := netscape.ParseBytes([]byte(rec.String() + "\n"))
			require.NoError(t, err)
			require.Len(t, f.Records, 1)

			got := f.Records[0]
			require.Equal(t, rec.Domain, got.Domain)
			require.Equal(t, rec.Name, got.Name)
			require.Equal(t, rec.Value, got.Value)
			require.Equal(t, rec.Expires, got.Expires)
			require.Equal(t, rec.HTTPOnly, got.HTTPOnly)
		})
	}
}

func TestRecord_ExpiredAt(t *testing.T) {
	now := time.Unix(1_000, 0)

	require.True(t, netscape.Record{Expires: 999}.ExpiredAt(now))
	require.True(t, netscape.Record{Expires: 0}.ExpiredAt(now), "session cookies count as expired")
	require.False(t, netscape.Record{Expires: 1_000}.ExpiredAt(now))
	require.False(t, netscape.Record{Expires: 5_000}.ExpiredAt(now))
}

func TestRecord_MatchesHost(t *testing.T) {
	cases := []struct {
		rec  netscape.Record
		host string
		want bool
	}{
		{netscape.Record{Domain: ".youtube.com"}, "www.youtube.com", true},
		{netscape.Record{Domain: ".youtube.com"}, "music.youtube.com", true},
		{netscape.Record{Domain: ".youtube.com"}, "youtube.com", true},
		{netscape.Record{Domain: "music.youtube.com"}, "music.youtube.com", true},
		{netscape.Record{Domain: "music.youtube.com"}, "www.youtube.com", false},
		{netscape.Record{Domain: "youtube.com", IncludeSubdomains: true}, "music.youtube.com", true},
		{netscape.Record{Domain: "youtube.com"}, "music.youtube.com", false},
		{netscape.Record{Domain: ".google.com"}, "www.youtube.com", false},
		{netscape.Record{Domain: ".tube.com"}, "www.youtube.com", false},
		{netscape.Record{Domain: "."}, "www.youtube.com", false},
	}

	for _, tc := range cases {
		name := fmt.Sprintf("%s->%s", tc.rec.Domain, tc.host)
		require.Equal(t, tc.want, tc.rec.MatchesHost(tc.host), name)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	records := []netscape.Record{
		{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true, Expires: 10, Name: "SID", Value: "a"},
		{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Expires: 20, Name: "HSID", Value: "b", HTTPOnly: true},
	}

	err := netscape.Write(&buf, []string{netscape.Header, "generated for a test"}, records)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"# Netscape HTTP Cookie File",
		"# generated for a test",
		"",
		".youtube.com\tTRUE\t/\tTRUE\t10\tSID\ta",
		"#HttpOnly_.youtube.com\tTRUE\t/\tFALSE\t20\tHSID\tb",
	}, lines)

	f, err := netscape.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	require.True(t, f.HasHeader)
	require.Len(t, f.Records, 2)
}

func TestParseLenient_SkipsMalformedLines(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		".a.com\tTRUE\t/\tFALSE\t10\tone\t1\n" +
		"broken line\n" +
		".a.com\tTRUE\t/\tFALSE\t10\ttwo\n" +
		".a.com\tTRUE\t/\tFALSE\t10\tthree\t3\n"

	f, lineErrs, err := netscape.ParseLenient(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, f.Records, 2)
	require.Equal(t, "three", f.Records[1].Name)
	require.Len(t, lineErrs, 2)
	require.Equal(t, 3, lineErrs[0].Line)
	require.Equal(t, 4, lineErrs[1].Line)
	require.Equal(t, 6, lineErrs[1].Fields)
}

package checker_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cookiestatus"
	"cookiestatus/internal/checker"
	"cookiestatus/pkg/domain"
	"cookiestatus/pkg/netscape"
	"cookiestatus/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, path string) map[netscape.Key]netscape.Record {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	f, err := netscape.ParseBytes(content)
	require.NoError(t, err)

	out := map[netscape.Key]netscape.Record{}
	for _, rec := range f.Records {
		_, dup := out[rec.Key()]
		require.False(t, dup, "duplicate key %v", rec.Key())
		out[rec.Key()] = rec
	}

	return out
}

func TestMerge_ConflictResolution(t *testing.T) {
	c := newTestChecker(t)
	dir := t.TempDir()

	writeFile(t, dir, "www.youtube.com_cookies.txt", header+
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tSID\tolder\n"+
		".youtube.com\tTRUE\t/\tTRUE\t0\tVISITOR\tsession\n"+
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tPREF\tshort\n"+
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tLOGIN_INFO\tkeep-me\n")
	writeFile(t, dir, "music.youtube.com_cookies.txt", header+
		".youtube.com\tTRUE\t/\tTRUE\t1900000900\tSID\tnewer\n"+
		".youtube.com\tTRUE\t/\tTRUE\t1850000000\tVISITOR\texpiring\n"+
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tPREF\tmuch-longer\n"+
		".youtube.com\tTRUE\t/\tTRUE\t1800000001\tLOGIN_INFO\tolder-one\n"+
		"music.youtube.com\tFALSE\t/\tTRUE\t1900000000\tPREF\tmusic\n")

	res, err := c.Merge(context.Background(), dir, checker.MergeOptions{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cookies.txt"), res.Output)
	require.Equal(t, 5, res.Cookies)
	require.Zero(t, res.Skipped)
	require.Len(t, res.Sources, 2)
	require.Equal(t, []string{".youtube.com", "music.youtube.com"}, res.Domains)
	require.Empty(t, res.Backups)

	got := readRecords(t, res.Output)
	require.Len(t, got, 5)
	require.Equal(t, "newer", got[netscape.Key{Domain: ".youtube.com", Name: "SID"}].Value)
	require.Equal(t, "expiring", got[netscape.Key{Domain: ".youtube.com", Name: "VISITOR"}].Value)
	require.Equal(t, "much-longer", got[netscape.Key{Domain: ".youtube.com", Name: "PREF"}].Value)
	require.Equal(t, "keep-me", got[netscape.Key{Domain: ".youtube.com", Name: "LOGIN_INFO"}].Value)
	require.Equal(t, "music", got[netscape.Key{Domain: "music.youtube.com", Name: "PREF"}].Value)

	// sources are left alone without backup
	_, err = os.Stat(filepath.Join(dir, "www.youtube.com_cookies.txt"))
	require.NoError(t, err)
}

func TestMerge_OutputLayout(t *testing.T) {
	c := newTestChecker(t)
	dir := t.TempDir()
	writeFile(t, dir, "music.youtube.com_cookies.txt", header+liveMusic+".youtube.com\tTRUE\t/\tTRUE\t1900000000\tB\tb\n")
	writeFile(t, dir, "www.youtube.com_cookies.txt", header+".youtube.com\tTRUE\t/\tTRUE\t1900000000\tA\ta\n")

	res, err := c.Merge(context.Background(), dir, checker.MergeOptions{})
	require.NoError(t, err)

	content, err := os.ReadFile(res.Output)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Equal(t, netscape.Header, lines[0])
	require.Contains(t, string(content), "# Generated: "+now.Format("2006-01-02T15:04:05Z07:00"))

	var records []string
	for _, line := range lines {
		if line != "" && !strings.HasPrefix(line, "#") {
			records = append(records, line)
		}
	}
	require.Equal(t, []string{
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tA\ta",
		".youtube.com\tTRUE\t/\tTRUE\t1900000000\tB\tb",
		strings.TrimSuffix(liveMusic, "\n"),
	}, records)

	info, err := os.Stat(res.Output)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestMerge_SkipsMalformedLinesAndExamples(t *testing.T) {
	c := newTestChecker(t)
	dir := t.TempDir()
	writeFile(t, dir, "www.youtube.com_cookies.txt", header+liveYouTube+"six\tfields\tonly\there\tand\tthere\n")
	writeFile(t, dir, "music.youtube.com_cookies.txt", string(cookiestatus.ExampleTemplate))

	res, err := c.Merge(context.Background(), dir, checker.MergeOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 3, res.Cookies)
	require.Equal(t, []string{filepath.Join(dir, "www.youtube.com_cookies.txt")}, res.Sources)

	// HttpOnly records survive the merge
	got := readRecords(t, res.Output)
	require.True(t, got[netscape.Key{Domain: ".youtube.com", Name: "HSID"}].HTTPOnly)
}

func TestMerge_Backup(t *testing.T) {
	c := newTestChecker(t)
	dir := t.TempDir()
	writeFile(t, dir, "www.youtube.com_cookies.txt", header+liveYouTube)

	res, err := c.Merge(context.Background(), dir, checker.MergeOptions{Backup: true})
	require.NoError(t, err)

	backup := filepath.Join(dir, "www.youtube.com_cookies.txt.backup")
	require.Equal(t, []string{backup}, res.Backups)
	_, err = os.Stat(backup)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "www.youtube.com_cookies.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge_ResultPassesCheck(t *testing.T) {
	c := newTestChecker(t)
	dir := t.TempDir()
	writeFile(t, dir, "www.youtube.com_cookies.txt", header+liveYouTube)
	writeFile(t, dir, "music.youtube.com_cookies.txt", header+liveMusic)

	_, err := c.Merge(context.Background(), dir, checker.MergeOptions{Backup: true})
	require.NoError(t, err)

	status := c.Check(context.Background(), dir)
	require.True(t, status.Valid, status.Message)
	require.Equal(t, domain.SourceCombined, status.Source)
	require.True(t, status.Files[0].HasHeader)
}

func TestMerge_Errors(t *testing.T) {
	c := newTestChecker(t)

	cases := []struct {
		name  string
		files map[string]string
		kind  serrors.Kind
	}{
		{name: "no sources", files: nil, kind: serrors.ErrMissingFile},
		{name: "only combined", files: map[string]string{"cookies.txt": header + liveYouTube}, kind: serrors.ErrMissingFile},
		{name: "only examples", files: map[string]string{
			"www.youtube.com_cookies.txt": string(cookiestatus.ExampleTemplate),
		}, kind: serrors.ErrExampleFile},
		{name: "no valid records", files: map[string]string{
			"www.youtube.com_cookies.txt": header + "broken\n",
		}, kind: serrors.ErrMalformedLine},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, dir, name, content)
			}

			res, err := c.Merge(context.Background(), dir, checker.MergeOptions{Backup: true})
			require.Nil(t, res)
			require.ErrorIs(t, err, tc.kind)
		})
	}
}

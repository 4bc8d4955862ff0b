package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cookiestatus/pkg/domain"
	"cookiestatus/pkg/logger"
	"cookiestatus/pkg/netscape"
	"cookiestatus/pkg/serrors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BackupSuffix is appended to a source file's name when it is backed up.
const BackupSuffix = ".backup"

// MergeOptions configure a merge.
type MergeOptions struct {
	// Backup renames every source to <name>.backup once the combined file is written.
	Backup bool
}

// MergeResult summarises a merge.
type MergeResult struct {
	// Output is the path of the combined file.
	Output string
	// Sources are the per-service files that contributed records.
	Sources []string
	// Cookies is the number of unique (domain, name) records written.
	Cookies int
	// Skipped counts malformed source lines that were dropped.
	Skipped int
	// Domains is the sorted set of domains in the output.
	Domains []string
	// Backups lists the backup paths, when Backup was requested.
	Backups []string
}

func (c *checker) Merge(ctx context.Context, dir string, opts MergeOptions) (*MergeResult, error) {
	ctx, span := c.tracer.Start(ctx, "checker.Merge")
	defer span.End()

	res := &MergeResult{Output: filepath.Join(dir, c.options.CombinedFile)}
	merged := map[netscape.Key]netscape.Record{}
	examples := 0

	for _, kind := range domain.ServiceKinds() {
		path := filepath.Join(dir, c.options.fileName(kind))
		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read source cookie file: %w", err)
		}

		if c.examples.Matches(content) {
			examples++
			logger.Warn(ctx, "skipping example cookie file", zap.String("path", path))

			continue
		}

		f, lineErrs, err := netscape.ParseLenient(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("could not parse source cookie file: %w", err)
		}
		for _, lineErr := range lineErrs {
			logger.Warn(ctx, "skipping malformed cookie line",
				zap.String("path", path),
				zap.Int("line", lineErr.Line),
				zap.Int("fields", lineErr.Fields))
		}
		res.Skipped += len(lineErrs)

		for _, rec := range f.Records {
			current, ok := merged[rec.Key()]
			if !ok || prefer(rec, current) {
				merged[rec.Key()] = rec
			}
		}
		res.Sources = append(res.Sources, path)
		logger.Info(ctx, "read source cookie file",
			zap.String("path", path), zap.Int("cookies", len(f.Records)))
	}

	switch {
	case len(res.Sources) == 0 && examples > 0:
		return nil, serrors.With(serrors.ErrExampleFile, "every source cookie file is an example template")
	case len(res.Sources) == 0:
		return nil, serrors.With(serrors.ErrMissingFile, "no source cookie files found; expected %s or %s",
			c.options.YouTubeFile, c.options.YouTubeMusicFile)
	case len(merged) == 0:
		return nil, serrors.With(serrors.ErrMalformedLine, "source cookie files contain no valid records")
	}

	records := sortRecords(merged)
	if err := writeAtomic(res.Output, mergeHeader(c.options.Now()), records); err != nil {
		return nil, fmt.Errorf("could not write combined cookie file: %w", err)
	}
	res.Cookies = len(records)
	res.Domains = recordDomains(records)

	if opts.Backup {
		for _, src := range res.Sources {
			backup := src + BackupSuffix
			if err := os.Rename(src, backup); err != nil {
				return res, fmt.Errorf("could not back up source cookie file: %w", err)
			}
			res.Backups = append(res.Backups, backup)
		}
	}

	span.SetAttributes(attribute.Int("cookie.count", res.Cookies), attribute.Int("cookie.skipped", res.Skipped))
	logger.Info(ctx, "merged cookie files",
		zap.String("output", res.Output),
		zap.Int("cookies", res.Cookies),
		zap.Int("skipped", res.Skipped),
		zap.Strings("domains", res.Domains))

	return res, nil
}

// prefer reports whether candidate should replace current for the same key:
// an expiring cookie beats a session cookie, then the later expiry wins, then
// the longer value.
func prefer(candidate, current netscape.Record) bool {
	if candidate.Session() != current.Session() {
		return current.Session()
	}
	if candidate.Expires != current.Expires {
		return candidate.Expires > current.Expires
	}

	return len(candidate.Value) > len(current.Value)
}

func sortRecords(merged map[netscape.Key]netscape.Record) []netscape.Record {
	records := make([]netscape.Record, 0, len(merged))
	for _, rec := range merged {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Domain != records[j].Domain {
			return records[i].Domain < records[j].Domain
		}

		return records[i].Name < records[j].Name
	})

	return records
}

func mergeHeader(now time.Time) []string {
	return []string{
		netscape.Header,
		"# https://curl.haxx.se/rfc/cookie_spec.html",
		"# This is a generated file! Do not edit.",
		"#",
		"# Combined YouTube & YouTube Music Cookie File",
		"# Generated: " + now.Format(time.RFC3339),
		"#",
	}
}

// writeAtomic writes the cookie file next to path and renames it into place,
// so readers never observe a partial file.
func writeAtomic(path string, header []string, records []netscape.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := netscape.Write(tmp, header, records); err != nil {
		_ = tmp.Close()

		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temp file: %w", err)
	}

	return nil
}

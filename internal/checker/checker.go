// Package checker decides whether the cookie files handed to yt-dlp are
// usable, and merges per-service exports into the combined file.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cookiestatus"
	"cookiestatus/internal/config"
	"cookiestatus/pkg/domain"
	"cookiestatus/pkg/logger"
	"cookiestatus/pkg/metrics"
	"cookiestatus/pkg/netscape"
	"cookiestatus/pkg/serrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "cookiestatus/checker"

// Options configure which files a check looks for.
type Options struct {
	// CombinedFile is preferred over the per-service files when present.
	CombinedFile string
	// YouTubeFile and YouTubeMusicFile are the per-service exports.
	YouTubeFile      string
	YouTubeMusicFile string
	// ExampleFile is the shipped template. It is never a candidate.
	ExampleFile string
	// Template is the content example files are compared against.
	Template []byte
	// Now returns the reference time for expiration checks.
	Now func() time.Time
}

// DefaultOptions returns the conventional file names and the embedded template.
func DefaultOptions() Options {
	return Options{
		CombinedFile:     "cookies.txt",
		YouTubeFile:      "www.youtube.com_cookies.txt",
		YouTubeMusicFile: "music.youtube.com_cookies.txt",
		ExampleFile:      "cookies_example.txt",
		Template:         cookiestatus.ExampleTemplate,
		Now:              time.Now,
	}
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.CombinedFile = cfg.Cookies.CombinedFile
	opts.YouTubeFile = cfg.Cookies.YouTubeFile
	opts.YouTubeMusicFile = cfg.Cookies.YouTubeMusicFile
	opts.ExampleFile = cfg.Cookies.ExampleFile

	return opts
}

func (o Options) fileName(kind domain.CookieKind) string {
	switch kind {
	case domain.CookieKindYouTube:
		return o.YouTubeFile
	case domain.CookieKindYouTubeMusic:
		return o.YouTubeMusicFile
	case domain.CookieKindCombined:
	}

	return o.CombinedFile
}

type checker struct {
	options  Options
	examples *exampleMatcher
	recorder *metrics.CheckRecorder
	tracer   trace.Tracer
}

// New creates a Checker. Check outcomes are recorded on meter, which may be nil.
func New(options Options, meter metric.Meter) (Checker, error) {
	if options.Now == nil {
		options.Now = time.Now
	}
	if len(options.Template) == 0 {
		options.Template = cookiestatus.ExampleTemplate
	}

	examples, err := newExampleMatcher(options.Template)
	if err != nil {
		return nil, err
	}

	recorder, err := metrics.NewCheckRecorder(meter)
	if err != nil {
		return nil, fmt.Errorf("could not create check recorder: %w", err)
	}

	return &checker{
		options:  options,
		examples: examples,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// inspection is one file read during a check. err carries the serrors kind of
// the first rule the file failed, expiration aside.
type inspection struct {
	file    domain.CookieFile
	records []netscape.Record
	err     error
}

func (c *checker) Check(ctx context.Context, dir string) domain.CookieStatus {
	ctx, span := c.tracer.Start(ctx, "checker.Check")
	defer span.End()

	start := time.Now()
	status := c.check(ctx, dir)
	c.recorder.Record(ctx, string(status.Reason), status.Valid, time.Since(start))

	span.SetAttributes(
		attribute.String("cookie.reason", string(status.Reason)),
		attribute.String("cookie.source", string(status.Source)),
		attribute.Bool("cookie.valid", status.Valid),
	)
	if logger.IsDebug(ctx) {
		files := make([]string, 0, len(status.Files))
		for _, f := range status.Files {
			if f.Exists {
				files = append(files, filepath.Base(f.Path))
			}
		}
		logger.Debug(ctx, "cookie check finished",
			zap.String("dir", dir),
			zap.String("reason", string(status.Reason)),
			zap.String("source", string(status.Source)),
			zap.Strings("files", files),
			zap.Strings("domains", status.Domains))
	}

	return status
}

func (c *checker) check(ctx context.Context, dir string) domain.CookieStatus {
	now := c.options.Now()
	status := domain.CookieStatus{
		CheckedAt: now,
		Coverage: map[domain.CookieKind]bool{
			domain.CookieKindYouTube:      false,
			domain.CookieKindYouTubeMusic: false,
		},
	}

	combined := c.inspect(ctx, dir, domain.CookieKindCombined)
	if combined.file.Exists {
		status.Source = domain.SourceCombined
		status.Files = []domain.CookieFile{combined.file}
		c.evaluate(&status, []inspection{combined}, now)

		return status
	}

	inspected := []inspection{combined}
	var present []inspection
	for _, kind := range domain.ServiceKinds() {
		in := c.inspect(ctx, dir, kind)
		inspected = append(inspected, in)
		if in.file.Exists {
			present = append(present, in)
		}
	}
	for _, in := range inspected {
		status.Files = append(status.Files, in.file)
	}

	if len(present) == 0 {
		status.Source = domain.SourceNone
		status.Reason = domain.ReasonMissing
		status.Message = c.missingMessage(dir, inspected)

		return status
	}

	status.Source = domain.SourcePerService
	c.evaluate(&status, present, now)

	return status
}

// inspect reads a single candidate file. Reading and parsing never fail the
// check; problems end up in the returned inspection.
func (c *checker) inspect(ctx context.Context, dir string, kind domain.CookieKind) inspection {
	name := c.options.fileName(kind)
	in := inspection{file: domain.CookieFile{Path: filepath.Join(dir, name), Kind: kind}}

	// the template never counts, even when configured under a candidate name
	if name == "" || name == c.options.ExampleFile {
		in.err = serrors.With(serrors.ErrMissingFile, "%s is not configured", kind)

		return in
	}

	content, err := os.ReadFile(in.file.Path)
	if err != nil {
		in.err = serrors.Wrap(serrors.ErrMissingFile, err, "could not read %s", name)
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn(ctx, "could not read cookie file", zap.String("path", in.file.Path), zap.Error(err))
		}

		return in
	}
	in.file.Exists = true

	f, parseErr := netscape.ParseBytes(content)
	in.records = f.Records
	in.file.LineCount = f.Lines
	in.file.RecordCount = len(f.Records)
	in.file.HasHeader = f.HasHeader
	in.file.Domains = recordDomains(f.Records)
	in.file.Expirations = make([]int64, 0, len(f.Records))
	for _, rec := range f.Records {
		in.file.Expirations = append(in.file.Expirations, rec.Expires)
	}
	in.file.IsExample = c.examples.Matches(content)

	switch {
	case in.file.IsExample:
		in.err = serrors.With(serrors.ErrExampleFile,
			"%s still contains the example cookies; export real cookies from your browser", name)
	case parseErr != nil:
		in.err = serrors.Wrap(serrors.ErrMalformedLine, parseErr, "%s is not a valid Netscape cookie file", name)
	case len(f.Records) == 0:
		in.err = serrors.With(serrors.ErrMalformedLine, "%s contains no cookie records", name)
	}

	return in
}

// evaluate applies the validity rules in order over the present files. The
// first rule any file hits decides the reason.
func (c *checker) evaluate(status *domain.CookieStatus, present []inspection, now time.Time) {
	var latest int64
	domains := map[string]struct{}{}
	for _, in := range present {
		for _, d := range in.file.Domains {
			domains[d] = struct{}{}
		}
		if exp := in.file.LatestExpiry(); exp > latest {
			latest = exp
		}
	}
	status.Domains = sortedKeys(domains)
	if latest > 0 {
		status.ExpiresAt = time.Unix(latest, 0).UTC()
	}

	c.cover(status, present, now)

	for _, kind := range []serrors.Kind{serrors.ErrExampleFile, serrors.ErrMalformedLine} {
		for _, in := range present {
			if errors.Is(in.err, kind) {
				status.Reason = reasonFor(kind)
				status.Message = in.err.Error()

				return
			}
		}
	}

	if !anyLive(present, now) {
		err := serrors.With(serrors.ErrExpiredCookies,
			"all cookies in %s have expired; export fresh cookies", fileNames(present))
		status.Reason = reasonFor(serrors.KindOf(err))
		status.Message = err.Error()
		if latest > 0 {
			status.Message += fmt.Sprintf(" (latest expiry %s)", status.ExpiresAt.Format(time.RFC3339))
		}

		return
	}

	status.Valid = true
	status.Reason = domain.ReasonOK
	status.Message = okMessage(present, status.Coverage)
}

// cover marks a service covered when a live record applies to its host. The
// combined file covers every service; a per-service file covers only its own.
// Files that failed the example or format rule cover nothing.
func (c *checker) cover(status *domain.CookieStatus, present []inspection, now time.Time) {
	for _, in := range present {
		if in.err != nil {
			continue
		}

		kinds := []domain.CookieKind{in.file.Kind}
		if in.file.Kind == domain.CookieKindCombined {
			kinds = domain.ServiceKinds()
		}

		for _, kind := range kinds {
			for _, rec := range in.records {
				if !rec.ExpiredAt(now) && rec.MatchesHost(kind.Host()) {
					status.Coverage[kind] = true

					break
				}
			}
		}
	}
}

func (c *checker) missingMessage(dir string, inspected []inspection) string {
	var readErrs []string
	for _, in := range inspected {
		var se *serrors.Error
		if errors.As(in.err, &se) && se.Cause() != nil && !errors.Is(se.Cause(), fs.ErrNotExist) {
			readErrs = append(readErrs, in.err.Error())
		}
	}
	if len(readErrs) > 0 {
		return strings.Join(readErrs, "; ")
	}

	if c.options.ExampleFile != "" {
		if _, err := os.Stat(filepath.Join(dir, c.options.ExampleFile)); err == nil {
			return fmt.Sprintf("only the example template %s was found; save your exported cookies as %s",
				c.options.ExampleFile, c.options.CombinedFile)
		}
	}

	return fmt.Sprintf("no cookie file found; expected %s or %s and %s",
		c.options.CombinedFile, c.options.YouTubeFile, c.options.YouTubeMusicFile)
}

func reasonFor(kind serrors.Kind) domain.Reason {
	switch kind {
	case serrors.ErrMissingFile:
		return domain.ReasonMissing
	case serrors.ErrExampleFile:
		return domain.ReasonIsExample
	case serrors.ErrMalformedLine:
		return domain.ReasonMalformed
	case serrors.ErrExpiredCookies:
		return domain.ReasonExpired
	}

	return domain.ReasonOK
}

func anyLive(present []inspection, now time.Time) bool {
	for _, in := range present {
		for _, rec := range in.records {
			if !rec.ExpiredAt(now) {
				return true
			}
		}
	}

	return false
}

func okMessage(present []inspection, coverage map[domain.CookieKind]bool) string {
	records := 0
	for _, in := range present {
		records += in.file.RecordCount
	}

	var covered, uncovered []string
	for _, kind := range domain.ServiceKinds() {
		if coverage[kind] {
			covered = append(covered, string(kind))
		} else {
			uncovered = append(uncovered, string(kind))
		}
	}

	msg := fmt.Sprintf("%d cookies found in %s", records, fileNames(present))
	if len(covered) > 0 {
		msg += "; covers " + strings.Join(covered, ", ")
	}
	if len(uncovered) > 0 {
		msg += "; no live cookie for " + strings.Join(uncovered, ", ")
	}

	return msg
}

func fileNames(ins []inspection) string {
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, filepath.Base(in.file.Path))
	}

	return strings.Join(names, ", ")
}

func recordDomains(records []netscape.Record) []string {
	set := make(map[string]struct{}, len(records))
	for _, rec := range records {
		set[rec.Domain] = struct{}{}
	}

	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

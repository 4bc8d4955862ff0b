package domain

import "time"

// Reason explains why a cookie status is or is not valid.
type Reason string

const (
	// ReasonMissing means no usable cookie file was found.
	ReasonMissing Reason = "missing"
	// ReasonIsExample means the cookie file is still the shipped template.
	ReasonIsExample Reason = "is-example"
	// ReasonMalformed means a record could not be split into seven fields.
	ReasonMalformed Reason = "malformed"
	// ReasonExpired means every cookie expired before the check.
	ReasonExpired Reason = "expired"
	// ReasonOK means the cookies look usable.
	ReasonOK Reason = "ok"
)

// Source tells which files decided a status.
type Source string

const (
	// SourceCombined means the combined cookie file was used.
	SourceCombined Source = "combined"
	// SourcePerService means the per-service files were evaluated together.
	SourcePerService Source = "per_service"
	// SourceNone means no cookie file was present.
	SourceNone Source = "none"
)

// CookieStatus is the read-only summary of a single cookie check.
type CookieStatus struct {
	// Valid is true only when Reason is ReasonOK.
	Valid bool
	// Reason is the first validity rule the inspected files hit.
	Reason Reason
	// Message is a short human-readable explanation.
	Message string
	// Source tells which files were inspected to reach the verdict.
	Source Source
	// Domains is the sorted union of cookie domains across inspected files.
	Domains []string
	// Coverage reports, per service, whether a live cookie applies to its host.
	Coverage map[CookieKind]bool
	// ExpiresAt is the latest expiration among inspected records; zero when unknown.
	ExpiresAt time.Time
	// Files lists every file that was looked at, present or not.
	Files []CookieFile
	// CheckedAt is when the check ran.
	CheckedAt time.Time
}

package domain

// CookieKind identifies which cookie file a CookieFile was read from.
type CookieKind string

const (
	// CookieKindCombined is the single file holding cookies for every service.
	CookieKindCombined CookieKind = "combined"
	// CookieKindYouTube is the per-service file exported from www.youtube.com.
	CookieKindYouTube CookieKind = "youtube"
	// CookieKindYouTubeMusic is the per-service file exported from music.youtube.com.
	CookieKindYouTubeMusic CookieKind = "youtube_music"
)

// Host returns the host a per-service kind is expected to cover.
// Combined files have no single host, so an empty string is returned.
func (k CookieKind) Host() string {
	switch k {
	case CookieKindYouTube:
		return "www.youtube.com"
	case CookieKindYouTubeMusic:
		return "music.youtube.com"
	case CookieKindCombined:
	}

	return ""
}

// ServiceKinds lists the per-service kinds in preference order.
func ServiceKinds() []CookieKind {
	return []CookieKind{CookieKindYouTube, CookieKindYouTubeMusic}
}

// CookieFile describes a cookie file as it was found during a single check.
// It is rebuilt on every check and never cached.
type CookieFile struct {
	// Path is the location of the file on disk.
	Path string
	// Kind tells which role the file plays.
	Kind CookieKind
	// Exists is false when the file could not be found or read.
	Exists bool
	// LineCount is the number of lines in the file, comments included.
	LineCount int
	// RecordCount is the number of cookie records parsed before any error.
	RecordCount int
	// HasHeader reports whether the file starts with the Netscape header comment.
	HasHeader bool
	// Domains is the sorted set of cookie domains found in the file.
	Domains []string
	// Expirations holds the expiration epoch (unix seconds) of every record.
	Expirations []int64
	// IsExample is true when the content matches the shipped template.
	IsExample bool
}

// LatestExpiry returns the largest expiration epoch, or 0 when there is none.
func (f CookieFile) LatestExpiry() int64 {
	var latest int64
	for _, exp := range f.Expirations {
		if exp > latest {
			latest = exp
		}
	}

	return latest
}

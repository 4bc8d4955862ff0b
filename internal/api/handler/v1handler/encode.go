package v1handler

import (
	"io"
	"path/filepath"
	"time"

	"cookiestatus/pkg/domain"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// EncodeStatus writes the wire form of a cookie status. File paths are
// reduced to base names so the response never reveals the server layout.
func EncodeStatus(e *jx.Encoder, s domain.CookieStatus) {
	e.ObjStart()

	e.FieldStart("valid")
	e.Bool(s.Valid)
	e.FieldStart("reason")
	e.Str(string(s.Reason))
	e.FieldStart("message")
	e.Str(s.Message)
	e.FieldStart("source")
	e.Str(string(s.Source))

	e.FieldStart("domains")
	encodeStrings(e, s.Domains)

	e.FieldStart("coverage")
	e.ObjStart()
	for _, kind := range domain.ServiceKinds() {
		e.FieldStart(string(kind))
		e.Bool(s.Coverage[kind])
	}
	e.ObjEnd()

	e.FieldStart("expiresAt")
	encodeTime(e, s.ExpiresAt)
	e.FieldStart("checkedAt")
	encodeTime(e, s.CheckedAt)

	e.FieldStart("files")
	e.ArrStart()
	for _, f := range s.Files {
		encodeFile(e, f)
	}
	e.ArrEnd()

	e.ObjEnd()
}

func encodeFile(e *jx.Encoder, f domain.CookieFile) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(filepath.Base(f.Path))
	e.FieldStart("kind")
	e.Str(string(f.Kind))
	e.FieldStart("exists")
	e.Bool(f.Exists)
	e.FieldStart("lineCount")
	e.Int(f.LineCount)
	e.FieldStart("recordCount")
	e.Int(f.RecordCount)
	e.FieldStart("hasHeader")
	e.Bool(f.HasHeader)
	e.FieldStart("isExample")
	e.Bool(f.IsExample)
	e.FieldStart("domains")
	encodeStrings(e, f.Domains)
	e.FieldStart("expiresAt")
	if latest := f.LatestExpiry(); latest > 0 {
		encodeTime(e, time.Unix(latest, 0))
	} else {
		e.Null()
	}
	e.ObjEnd()
}

func encodeHealth(e *jx.Encoder, service, version string, now time.Time) {
	e.ObjStart()
	e.FieldStart("status")
	e.Str("healthy")
	e.FieldStart("timestamp")
	encodeTime(e, now)
	e.FieldStart("version")
	e.Str(version)
	e.FieldStart("service")
	e.Str(service)
	e.ObjEnd()
}

func encodeError(e *jx.Encoder, body ErrorBody) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(body.Code)
	e.FieldStart("message")
	e.Str(body.Message)
	if body.RequestID != "" {
		e.FieldStart("requestId")
		e.Str(body.RequestID)
	}
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

// encodeTime writes t as RFC 3339 in UTC, or null for the zero time.
func encodeTime(e *jx.Encoder, t time.Time) {
	if t.IsZero() {
		e.Null()

		return
	}
	e.Str(t.UTC().Format(time.RFC3339))
}

func writeBody(w io.Writer, e *jx.Encoder) error {
	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write body")
	}

	return nil
}

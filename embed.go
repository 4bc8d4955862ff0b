// Package cookiestatus holds the static assets shipped with the service.
package cookiestatus

import _ "embed"

// ExampleTemplate is the cookie template shipped next to the real cookie files.
// Files matching it are reported as examples rather than usable cookies.
//
//go:embed cookies/cookies_example.txt
var ExampleTemplate []byte

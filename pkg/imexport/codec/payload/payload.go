// Package payload embeds the default codec profile.
package payload

import _ "embed"

//go:generate sh -c "gzip -9 -n -c profile.yaml | base64 -w0 > profile.gz.b64"

// Default is the gzip-compressed, base64-encoded default codec profile.
//
//go:embed profile.gz.b64
var Default string

// Package web holds the embedded browser assets: the single page served at
// the root route and the static files under /static/.
package web

import "embed"

// Index is the single-page UI served at the root route.
//
//go:embed index.html
var Index []byte

// StaticFS holds the static assets, including the default placeholder image.
//
//go:embed static
var StaticFS embed.FS

// PlaceholderJPEG is the bundled default image shown before any upload.
//
//go:embed static/placeholder.jpg
var PlaceholderJPEG []byte

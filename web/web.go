// Package web embeds the console's static shell. The shell is a single
// page; client-side routing decides what to render, the server only has to
// hand back the same document for every console route.
package web

import "embed"

//go:embed static
var Static embed.FS

// ShellPath is the document served for all console routes.
const ShellPath = "static/index.html"

// NotFoundPath is the document served for unknown non-API routes.
const NotFoundPath = "static/404.html"

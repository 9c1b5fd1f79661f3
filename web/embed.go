package web

import "embed"

// Content holds the planner page (index.html, app.js, styles.css).
//
//go:embed index.html app.js styles.css
var Content embed.FS

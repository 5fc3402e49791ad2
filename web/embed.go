package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS

// LocalesFS embeds the per-language translation maps, locales/<code>.json.
//
//go:embed locales/*.json
var LocalesFS embed.FS

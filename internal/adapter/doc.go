// Package adapter connects CityOS to the upstream services it depends on.
//
// # Government data sources
//
// Client fetches JSON from the Câmara dos Deputados, Senado Federal and
// Portal da Transparência open-data APIs. Each client sends the headers its
// upstream expects, caches response bodies by full URL and records a span per
// upstream call. Transparência endpoints may carry {name} path parameters that
// are filled from the query parameters.
//
// # Registry
//
// Registry holds one adapter per source and answers lookups by source name.
// Enabled sources are probed on an interval and every probe result is handed
// to the registry's StatusFunc, which the service layer turns into
// source_status events.
//
// # LLM and chart rendering
//
// Completer wraps an OpenAI-compatible chat completion API. QuickChart renders
// Chart.js configurations to PNG.
package adapter

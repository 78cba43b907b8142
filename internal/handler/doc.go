// Package handler implements the CityOS HTTP API.
//
// # Handlers
//
// GovHandler proxies the Câmara, Senado and Portal da Transparência APIs.
//
// AIHandler answers questions about government data: chart analysis,
// scoped questions, streamed chat and rendered charts.
//
// DemoHandler drives the operations console simulation, including
// incident injection, playbooks and the audit export.
//
// UrbanHandler, LeadHandler and SystemHandler serve the landing page
// series, lead capture and health checks.
//
// # Response Format
//
// Success responses return JSON data with 200 or 201. Error responses
// return JSON with {error, details}. Validation failures map to 400,
// unknown entities to 404 and lead form errors to 422 with per-field
// messages.
//
// # Server-Sent Events
//
// NewRouter mounts the event hub at /events so clients can follow demo
// ticks, incidents and upstream status changes live.
package handler

// Package simulator generates the synthetic urban telemetry behind the demo
// console.
//
// An Engine holds the full simulation state: events, incidents, per-tick
// metrics, source telemetry, active playbooks and the audit trail. Each call
// to Advance runs one tick. Randomness comes from a seeded mulberry32
// generator so a scenario replays identically after Reset.
//
// Engines are not safe for concurrent use. The demo service owns one engine
// and serializes access to it.
package simulator

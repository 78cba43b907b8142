// Package domain defines the core domain types for the CityOS demo platform.
//
// This package contains the entities and value objects shared by the HTTP
// layer, the services and the simulator. It has no database or network
// dependencies.
//
// # Urban Simulation
//
// Layer, Severity and Scenario are the enumerations the demo console is built
// on. Region, Corridor and Asset describe the fixed synthetic city the
// simulator generates events for, each addressed by a cityos:// resource
// identifier (RID).
//
// EventRecord and IncidentRecord are the simulator outputs. Incidents follow
// the lifecycle aberto -> mitigado -> resolvido as their remaining ticks decay.
//
// Playbook and AuditEntry model operator decisions. Every playbook run leaves
// an audit entry whose hash can be recomputed from its inputs.
//
// # Government Data
//
// Source names the upstream open-data APIs (Câmara dos Deputados, Senado,
// Portal da Transparência). QueryPlan and ChartData describe how a question is
// turned into a chart.
//
// # Leads
//
// Lead is a contact captured from the landing page form.
package domain

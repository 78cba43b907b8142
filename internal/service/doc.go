// Package service implements the business logic of the CityOS backend.
//
// Services sit between the HTTP handlers and the adapters and repository.
// They validate input, apply the domain rules and publish events.
//
// # Services
//
// GovDataService proxies the Câmara, Senado and Portal da Transparência
// open-data APIs, filling the parameters each portal requires.
//
// AnalysisService turns a natural-language question into chart data. A
// question is matched against predefined patterns first and planned by the
// LLM otherwise. Deputy expenses, bills and health spending have dedicated
// pipelines.
//
// AskService, ChatService and ChartService back the scoped answers, the
// streaming assistant and the QuickChart rendering of the landing page.
//
// DemoService owns the demo console simulation and ticks it on an interval.
//
// LeadService captures demo requests.
//
// # Event System
//
// Services publish events via EventBus. The hub relays them to browsers
// over Server-Sent Events.
package service

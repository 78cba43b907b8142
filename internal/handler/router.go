package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// Deps holds the handlers mounted by NewRouter. A nil handler leaves its
// routes unregistered.
type Deps struct {
	Gov    *GovHandler
	AI     *AIHandler
	Demo   *DemoHandler
	Urban  *UrbanHandler
	Leads  *LeadHandler
	System *SystemHandler
	Events http.Handler

	CORSOrigin string
	Logger     *zap.Logger
}

// NewRouter registers every API route and wraps the mux in the middleware chain
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	system := d.System
	if system == nil {
		system = NewSystemHandler(nil)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", system.Healthz)
	mux.HandleFunc("GET /api/sources/status", system.SourcesStatus)

	if h := d.Gov; h != nil {
		mux.HandleFunc("GET /api/camara/despesas", h.CamaraDespesas)
		mux.HandleFunc("GET /api/camara/projetos", h.CamaraProjetos)
		mux.HandleFunc("GET /api/gov-data", h.GovData)
		mux.HandleFunc("GET /api/transparencia", h.Transparencia)
	}

	if h := d.AI; h != nil {
		mux.HandleFunc("POST /api/analyze", h.Analyze)
		mux.HandleFunc("POST /api/analize", h.Intent)
		mux.HandleFunc("POST /api/ask", h.Ask)
		mux.HandleFunc("POST /api/chat", h.Chat)
		mux.HandleFunc("POST /api/generate-chart", h.GenerateChart)
		mux.HandleFunc("GET /api/analyses", h.ListAnalyses)
	}

	if h := d.Demo; h != nil {
		mux.HandleFunc("GET /api/demo/catalog", h.Catalog)
		mux.HandleFunc("GET /api/demo/state", h.State)
		mux.HandleFunc("GET /api/demo/kpis", h.KPIs)
		mux.HandleFunc("GET /api/demo/events", h.Events)
		mux.HandleFunc("GET /api/demo/incidents", h.Incidents)
		mux.HandleFunc("GET /api/demo/entities/{rid...}", h.Entity)
		mux.HandleFunc("PUT /api/demo/controls", h.SetControls)
		mux.HandleFunc("POST /api/demo/reset", h.Reset)
		mux.HandleFunc("POST /api/demo/tick", h.Tick)
		mux.HandleFunc("POST /api/demo/inject", h.Inject)
		mux.HandleFunc("POST /api/demo/playbooks", h.RunPlaybook)
		mux.HandleFunc("PUT /api/demo/sources/{id}", h.SetSourceHealth)
		mux.HandleFunc("GET /api/demo/audit", h.Audit)
	}

	if h := d.Urban; h != nil {
		mux.HandleFunc("GET /api/urban/timeline", h.Timeline)
		mux.HandleFunc("GET /api/urban/incidents", h.Incidents)
		mux.HandleFunc("GET /api/urban/energy", h.Energy)
	}

	if h := d.Leads; h != nil {
		mux.HandleFunc("POST /api/leads", h.Create)
		mux.HandleFunc("GET /api/leads", h.List)
	}

	if d.Events != nil {
		mux.Handle("GET /events", d.Events)
	}

	return Chain(mux, Recover(logger), CORS(d.CORSOrigin), Logger(logger))
}

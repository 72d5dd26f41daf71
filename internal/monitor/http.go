package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/waveacq/rtadp/internal/nlog"
)

// StatusProvider supplies the data behind GET /statusz: the Supervisor's
// own status plus every Manager's gathered snapshot.
type StatusProvider interface {
	SupervisorStatus() string
	ManagerSnapshots() map[string]ManagerSnap
}

// StatusPayload is the JSON body served at GET /statusz.
type StatusPayload struct {
	Status   string                 `json:"status"`
	Managers map[string]ManagerSnap `json:"managers"`
}

// ServeHTTP starts a fasthttp server on addr exposing GET /statusz
// (JSON Supervisor + Manager snapshot) and GET /metrics (Prometheus
// exposition format), per SPEC_FULL §4.6. It returns immediately; the
// server runs until the process exits or the listener fails.
func ServeHTTP(addr string, provider StatusProvider) {
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/statusz":
			payload := StatusPayload{
				Status:   provider.SupervisorStatus(),
				Managers: provider.ManagerSnapshots(),
			}
			body, err := json.Marshal(payload)
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(body)
		case "/metrics":
			metricsHandler(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	go func() {
		if err := fasthttp.ListenAndServe(addr, handler); err != nil {
			nlog.Errorln("monitor http server exited:", err)
		}
	}()
}

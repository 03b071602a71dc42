package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "matches_total", Help: "Execution prices computed"},
		[]string{"matcher"},
	)
	SyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "syncs_total", Help: "Signal sync calls applied"},
		[]string{"matcher"},
	)
	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rejections_total", Help: "Failed matcher calls"},
		[]string{"matcher", "op"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intents_total", Help: "Encrypted intents processed by the solver"},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(MatchesTotal, SyncsTotal, RejectionsTotal, IntentsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

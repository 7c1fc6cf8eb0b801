package server

import (
	nethttp "net/http"

	"hazard/internal/conf"
	"hazard/internal/pkg/metrics"
	"hazard/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// internalErrorMessage replaces messages of errors that carry no reason.
const internalErrorMessage = "Internal server error"

type errorBody struct {
	Error string `json:"error"`
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	analysis *service.AnalysisService,
	history *service.HistoryService,
	health *service.HealthService,
	m *metrics.Metrics,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
		http.ErrorEncoder(ErrorEncoder),
	}
	if hc := c.GetHTTP(); hc != nil {
		if hc.Network != "" {
			opts = append(opts, http.Network(hc.Network))
		}
		if hc.Addr != "" {
			opts = append(opts, http.Address(hc.Addr))
		}
		if hc.Timeout > 0 {
			opts = append(opts, http.Timeout(hc.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.POST("/analyze", analysis.AnalyzeHTTP)
	r.GET("/analyses", history.ListAnalysesHTTP)
	r.GET("/analyses/{id}", history.GetAnalysisHTTP)
	r.GET("/healthz", health.CheckHTTP)
	srv.Handle("/metrics", m.Handler())
	return srv
}

// ErrorEncoder renders every error as {"error": message}. Errors without a
// reason never reach the client verbatim.
func ErrorEncoder(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	se := errors.FromError(err)
	msg := se.Message
	if se.Reason == errors.UnknownReason {
		msg = internalErrorMessage
	}
	codec, _ := http.CodecForRequest(r, "Accept")
	body, err := codec.Marshal(&errorBody{Error: msg})
	if err != nil {
		w.WriteHeader(nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/"+codec.Name())
	w.WriteHeader(int(se.Code))
	_, _ = w.Write(body)
}

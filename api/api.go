// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/vevote/api/events"
	"github.com/vechain/vevote/api/gauges"
	"github.com/vechain/vevote/api/locks"
	"github.com/vechain/vevote/api/supply"
	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/metrics"
)

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	SkipLogs        bool
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
}

// New return api router
func New(esc *escrow.Escrow, db logdb.Reader, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	locks.New(esc).
		Mount(router, "/locks")
	supply.New(esc).
		Mount(router, "/supply")
	gauges.New(esc).
		Mount(router, "/gauges")
	if !opts.SkipLogs && db != nil {
		events.New(db, opts.LogsLimit).
			Mount(router, "/events")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").Handler(h)
		}
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, log.New("pkg", "api"))
	}

	return handler.ServeHTTP
}

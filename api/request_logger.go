// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// RequestLoggerHandler returns a http handler logging every request before serving it.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		// the body can be read once, hand a copy to the next handler
		var bodyBytes []byte
		var err error
		if r.Body != nil {
			bodyBytes, err = io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("unexpected body read error", "err", err)
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		start := time.Now()
		handler.ServeHTTP(w, r)

		logger.Info("API Request",
			"URI", r.URL.String(),
			"Method", r.Method,
			"Body", string(bodyBytes),
			"elapsed", time.Since(start),
		)
	}
	return http.HandlerFunc(fn)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package supply

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/builtin/escrow"
)

type Supply struct {
	At        uint64                `json:"at"`
	Total     *math.HexOrDecimal256 `json:"total"`
	Permanent *math.HexOrDecimal256 `json:"permanent"`
	Locked    *math.HexOrDecimal256 `json:"locked"`
}

type Handler struct {
	escrow *escrow.Escrow
}

func New(esc *escrow.Escrow) *Handler {
	return &Handler{esc}
}

func (h *Handler) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	now, err := h.escrow.Now()
	if err != nil {
		return err
	}
	at, err := restutil.ParseTime(req, now)
	if err != nil {
		return err
	}
	total, err := h.escrow.TotalSupplyAt(at)
	if err != nil {
		return err
	}
	permanent, err := h.escrow.PermanentSupplyAt(at)
	if err != nil {
		return err
	}
	locked, err := h.escrow.Supply()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Supply{
		At:        at,
		Total:     restutil.Amount(total),
		Permanent: restutil.Amount(permanent),
		Locked:    restutil.Amount(locked),
	})
}

func (h *Handler) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /supply").
		HandlerFunc(restutil.WrapHandlerFunc(h.handleGetSupply))
}

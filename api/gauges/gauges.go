// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gauges

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/builtin/escrow/bribe"
	"github.com/vechain/vevote/thor"
)

type Gauges struct {
	escrow *escrow.Escrow
}

func New(esc *escrow.Escrow) *Gauges {
	return &Gauges{esc}
}

func (g *Gauges) handleGetGauges(w http.ResponseWriter, _ *http.Request) error {
	addrs, err := g.escrow.Gauges()
	if err != nil {
		return err
	}
	list := make([]*Gauge, 0, len(addrs))
	for _, addr := range addrs {
		gauge, err := g.gauge(addr)
		if err != nil {
			return err
		}
		list = append(list, gauge)
	}
	return restutil.WriteJSON(w, list)
}

func (g *Gauges) gauge(addr thor.Address) (*Gauge, error) {
	gauge, err := g.escrow.Gauge(addr)
	if err != nil {
		return nil, err
	}
	if gauge == nil {
		return nil, restutil.NotFound(errors.New("gauge not found"))
	}
	claimable, err := g.escrow.Claimable(addr)
	if err != nil {
		return nil, err
	}
	return &Gauge{
		Address:   addr,
		Alive:     gauge.Alive,
		CreatedAt: gauge.CreatedAt,
		Claimable: restutil.Amount(claimable),
	}, nil
}

// parseGauge parses the gauge path value and ensures the gauge exists.
func (g *Gauges) parseGauge(req *http.Request) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)["gauge"])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, "gauge"))
	}
	gauge, err := g.escrow.Gauge(*addr)
	if err != nil {
		return thor.Address{}, err
	}
	if gauge == nil {
		return thor.Address{}, restutil.NotFound(errors.New("gauge not found"))
	}
	return *addr, nil
}

func parseKind(req *http.Request) (bribe.Kind, error) {
	s := req.URL.Query().Get("kind")
	if s == "" {
		return bribe.External, nil
	}
	kind, err := bribe.ParseKind(s)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "kind"))
	}
	return kind, nil
}

func (g *Gauges) handleGetGauge(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.parseGauge(req)
	if err != nil {
		return err
	}
	gauge, err := g.gauge(addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, gauge)
}

// handleGetEpoch responds the epoch containing the given time, for every token of the distributor.
func (g *Gauges) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.parseGauge(req)
	if err != nil {
		return err
	}
	kind, err := parseKind(req)
	if err != nil {
		return err
	}
	t, err := restutil.ParseUint("epoch", mux.Vars(req)["epoch"])
	if err != nil {
		return err
	}
	start := g.escrow.Schedule().Start(t)

	weight, err := g.escrow.GaugeWeightAt(addr, start)
	if err != nil {
		return err
	}
	supply, err := g.escrow.TotalSupplyPerEpoch(addr, start)
	if err != nil {
		return err
	}
	tokens, err := g.escrow.RewardTokens(addr, kind)
	if err != nil {
		return err
	}
	res := &Epoch{
		Epoch:       start,
		Kind:        kind.String(),
		Weight:      restutil.Amount(weight),
		TotalSupply: restutil.Amount(supply),
		Rewards:     make([]Reward, 0, len(tokens)),
	}
	for _, token := range tokens {
		info, err := g.escrow.RewardEpoch(addr, kind, token, start)
		if err != nil {
			return err
		}
		res.Rewards = append(res.Rewards, convertReward(token, info))
	}
	return restutil.WriteJSON(w, res)
}

// handleGetEarned responds the unclaimed rewards of a lock in every token of the distributor.
func (g *Gauges) handleGetEarned(w http.ResponseWriter, req *http.Request) error {
	addr, err := g.parseGauge(req)
	if err != nil {
		return err
	}
	kind, err := parseKind(req)
	if err != nil {
		return err
	}
	id, err := restutil.ParseUint("id", mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	if _, err := g.escrow.Lock(id); err != nil {
		return restutil.LedgerError(err)
	}
	tokens, err := g.escrow.RewardTokens(addr, kind)
	if err != nil {
		return err
	}
	amounts, err := g.escrow.EarnedAll(req.Context(), addr, kind, id, tokens)
	if err != nil {
		return restutil.LedgerError(err)
	}
	res := make([]Earned, 0, len(tokens))
	for i, token := range tokens {
		res = append(res, Earned{Token: token, Amount: restutil.Amount(amounts[i])})
	}
	return restutil.WriteJSON(w, res)
}

func (g *Gauges) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /gauges").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetGauges))
	sub.Path("/{gauge}").
		Methods(http.MethodGet).
		Name("GET /gauges/{gauge}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetGauge))
	sub.Path("/{gauge}/epochs/{epoch:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /gauges/{gauge}/epochs/{epoch}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetEpoch))
	sub.Path("/{gauge}/earned/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /gauges/{gauge}/earned/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetEarned))
}

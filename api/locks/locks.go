// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/builtin/escrow"
)

type Locks struct {
	escrow *escrow.Escrow
}

func New(esc *escrow.Escrow) *Locks {
	return &Locks{esc}
}

func (l *Locks) lockID(req *http.Request) (uint64, error) {
	return restutil.ParseUint("id", mux.Vars(req)["id"])
}

func (l *Locks) handleGetLock(w http.ResponseWriter, req *http.Request) error {
	id, err := l.lockID(req)
	if err != nil {
		return err
	}
	lk, err := l.escrow.Lock(id)
	if err != nil {
		return restutil.LedgerError(err)
	}
	return restutil.WriteJSON(w, convertLock(id, lk))
}

// handleGetBalance responds the voting power of a lock, at the ledger time unless "at" is given.
func (l *Locks) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	id, err := l.lockID(req)
	if err != nil {
		return err
	}
	now, err := l.escrow.Now()
	if err != nil {
		return err
	}
	at, err := restutil.ParseTime(req, now)
	if err != nil {
		return err
	}
	balance, err := l.escrow.BalanceOfAt(id, at)
	if err != nil {
		return restutil.LedgerError(err)
	}
	return restutil.WriteJSON(w, &Balance{ID: id, At: at, Balance: restutil.Amount(balance)})
}

// handleGetVotes responds the current allocation of a lock, null when it has none.
func (l *Locks) handleGetVotes(w http.ResponseWriter, req *http.Request) error {
	id, err := l.lockID(req)
	if err != nil {
		return err
	}
	if _, err := l.escrow.Lock(id); err != nil {
		return restutil.LedgerError(err)
	}
	alloc, err := l.escrow.Allocation(id)
	if err != nil {
		return err
	}
	if alloc == nil {
		return restutil.WriteJSON(w, nil)
	}
	return restutil.WriteJSON(w, convertVotes(alloc))
}

func (l *Locks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /locks/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(l.handleGetLock))
	sub.Path("/{id:[0-9]+}/balance").
		Methods(http.MethodGet).
		Name("GET /locks/{id}/balance").
		HandlerFunc(restutil.WrapHandlerFunc(l.handleGetBalance))
	sub.Path("/{id:[0-9]+}/votes").
		Methods(http.MethodGet).
		Name("GET /locks/{id}/votes").
		HandlerFunc(restutil.WrapHandlerFunc(l.handleGetVotes))
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testledger

import (
	"math/big"

	"github.com/vechain/vevote/acl"
	"github.com/vechain/vevote/builtin/custody"
	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/lvldb"
	"github.com/vechain/vevote/oracle"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

// Genesis is the time of the first call made on a new ledger, one day into an epoch.
const Genesis = 100*thor.Week + thor.Day

var (
	Token = thor.BytesToAddress([]byte("vevote"))
	// Governor holds every capability of the ledger.
	Governor = thor.BytesToAddress([]byte("governor"))
)

// Ledger is an in-memory escrow with its custody book and event log, driven by a manual clock.
type Ledger struct {
	*escrow.Escrow
	db     *lvldb.LevelDB
	book   *custody.Book
	oracle *oracle.Static
	logDB  *logdb.LogDB
	at     uint64
}

// New creates a ledger with default params and boosting disabled.
func New() (*Ledger, error) {
	return NewWithParams(func(p *escrow.Params) { p.BoostRate = 0 })
}

// NewWithParams creates a ledger with default params adjusted by fn.
func NewWithParams(fn func(p *escrow.Params)) (*Ledger, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	logDB, err := logdb.NewMem()
	if err != nil {
		db.Close()
		return nil, err
	}

	st := state.New(db)
	params := escrow.DefaultParams(Token)
	if fn != nil {
		fn(&params)
	}
	book := custody.New(thor.CustodyNamespace, st)
	prices := oracle.New()
	auth := acl.New(map[string][]thor.Address{
		escrow.ActionGovern:         {Governor},
		escrow.ActionFeeSource:      {Governor},
		escrow.ActionEmissionSource: {Governor},
		escrow.ActionManagedCreator: {Governor},
	})

	esc := escrow.New(st, db, params, escrow.Deps{
		Custody:    book,
		Authorizer: auth,
		Oracle:     prices,
		Events:     logDB,
	})
	return &Ledger{
		Escrow: esc,
		db:     db,
		book:   book,
		oracle: prices,
		logDB:  logDB,
		at:     Genesis,
	}, nil
}

func (l *Ledger) Close() {
	l.logDB.Close()
	l.db.Close()
}

// LogDB returns the event log written by the ledger.
func (l *Ledger) LogDB() *logdb.LogDB {
	return l.logDB
}

func (l *Ledger) Oracle() *oracle.Static {
	return l.oracle
}

// Time returns the time of the next call.
func (l *Ledger) Time() uint64 {
	return l.at
}

// Advance moves the manual clock forward by d seconds.
func (l *Ledger) Advance(d uint64) *Ledger {
	l.at += d
	return l
}

// Call returns a call of caller at the manual clock time.
func (l *Ledger) Call(caller thor.Address) escrow.Call {
	return escrow.Call{Caller: caller, Time: l.at}
}

// Tick moves the ledger time to the manual clock.
func (l *Ledger) Tick() error {
	return l.Checkpoint(l.Call(Governor))
}

// Fund mints amount of token to holder.
func (l *Ledger) Fund(token, holder thor.Address, amount *big.Int) error {
	return l.book.Mint(token, holder, amount)
}

// BalanceOf returns the custody balance of holder.
func (l *Ledger) BalanceOf(token, holder thor.Address) (*big.Int, error) {
	return l.book.BalanceOf(token, holder)
}

// NewLock funds owner and locks amount for duration, skipping boosts.
func (l *Ledger) NewLock(owner thor.Address, amount *big.Int, duration uint64) (uint64, error) {
	if err := l.Fund(Token, owner, amount); err != nil {
		return 0, err
	}
	return l.CreateLockWithoutBoost(l.Call(owner), amount, duration)
}

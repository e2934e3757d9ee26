// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/api/locks"
	"github.com/vechain/vevote/test/testledger"
	"github.com/vechain/vevote/thor"
)

var (
	ledger *testledger.Ledger
	ts     *httptest.Server
	lockID uint64
	gauge  thor.Address

	alice = thor.BytesToAddress([]byte("alice"))
)

func TestLocks(t *testing.T) {
	initLocksServer(t)
	defer ts.Close()
	defer ledger.Close()

	for name, tt := range map[string]func(*testing.T){
		"getLock":             getLock,
		"getLockNotFound":     getLockNotFound,
		"getLockInvalidID":    getLockInvalidID,
		"getBalance":          getBalance,
		"getBalanceAt":        getBalanceAt,
		"getBalanceBadTime":   getBalanceBadTime,
		"getVotes":            getVotes,
		"getVotesNotVoted":    getVotesNotVoted,
		"getVotesUnknownLock": getVotesUnknownLock,
	} {
		t.Run(name, tt)
	}
}

func initLocksServer(t *testing.T) {
	var err error
	ledger, err = testledger.New()
	require.NoError(t, err)

	amount := new(big.Int).Mul(big.NewInt(100), thor.Precision)
	lockID, err = ledger.NewLock(alice, amount, thor.DefaultMaxLockTime)
	require.NoError(t, err)
	_, err = ledger.NewLock(alice, amount, thor.DefaultMaxLockTime)
	require.NoError(t, err)

	gauge, err = ledger.CreateGauge(ledger.Call(testledger.Governor))
	require.NoError(t, err)
	require.NoError(t, ledger.Vote(ledger.Call(alice), lockID, []thor.Address{gauge}, []uint64{1}))

	router := mux.NewRouter()
	locks.New(ledger.Escrow).Mount(router, "/locks")
	ts = httptest.NewServer(router)
}

func getLock(t *testing.T) {
	res, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10))
	require.Equal(t, http.StatusOK, code)

	var lock locks.Lock
	require.NoError(t, json.Unmarshal(res, &lock))
	assert.Equal(t, lockID, lock.ID)
	assert.Equal(t, alice, lock.Owner)
	assert.Nil(t, lock.Approved)
	assert.Equal(t, "decaying", lock.Kind)
	assert.Equal(t, 152*thor.Week, lock.UnlockTime)
	assert.Equal(t, testledger.Genesis, lock.CreatedAt)
	assert.True(t, lock.Transferable)
	assert.Nil(t, lock.Attachment)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(100), thor.Precision).String(), (*big.Int)(lock.Amount).String())
}

func getLockNotFound(t *testing.T) {
	_, code := httpGet(t, ts.URL+"/locks/99")
	assert.Equal(t, http.StatusNotFound, code)
}

func getLockInvalidID(t *testing.T) {
	_, code := httpGet(t, ts.URL+"/locks/0x01")
	assert.Equal(t, http.StatusNotFound, code, "unmatched route")

	_, code = httpGet(t, ts.URL+"/locks/99999999999999999999999")
	assert.Equal(t, http.StatusBadRequest, code, "id overflows")
}

func getBalance(t *testing.T) {
	res, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10)+"/balance")
	require.Equal(t, http.StatusOK, code)

	var balance locks.Balance
	require.NoError(t, json.Unmarshal(res, &balance))
	want, err := ledger.BalanceOfNFT(lockID)
	require.NoError(t, err)
	assert.Equal(t, testledger.Genesis, balance.At)
	assert.Equal(t, want.String(), (*big.Int)(balance.Balance).String())
	assert.Positive(t, want.Sign())
}

func getBalanceAt(t *testing.T) {
	at := 120 * thor.Week
	res, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10)+"/balance?at="+strconv.FormatUint(at, 10))
	require.Equal(t, http.StatusOK, code)

	var balance locks.Balance
	require.NoError(t, json.Unmarshal(res, &balance))
	want, err := ledger.BalanceOfAt(lockID, at)
	require.NoError(t, err)
	assert.Equal(t, at, balance.At)
	assert.Equal(t, want.String(), (*big.Int)(balance.Balance).String())

	// past the unlock time nothing is left
	res, code = httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10)+"/balance?at="+strconv.FormatUint(200*thor.Week, 10))
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res, &balance))
	assert.Zero(t, (*big.Int)(balance.Balance).Sign())
}

func getBalanceBadTime(t *testing.T) {
	_, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10)+"/balance?at=yesterday")
	assert.Equal(t, http.StatusBadRequest, code)
}

func getVotes(t *testing.T) {
	res, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID, 10)+"/votes")
	require.Equal(t, http.StatusOK, code)

	var votes locks.Votes
	require.NoError(t, json.Unmarshal(res, &votes))
	assert.Equal(t, 101*thor.Week, votes.Epoch)
	require.Len(t, votes.Votes, 1)
	assert.Equal(t, gauge, votes.Votes[0].Gauge)
	assert.Equal(t, uint64(1), votes.Votes[0].Weight)
	assert.Equal(t, (*big.Int)(votes.Total).String(), (*big.Int)(votes.Votes[0].Amount).String())
}

func getVotesNotVoted(t *testing.T) {
	res, code := httpGet(t, ts.URL+"/locks/"+strconv.FormatUint(lockID+1, 10)+"/votes")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null\n", string(res))
}

func getVotesUnknownLock(t *testing.T) {
	_, code := httpGet(t, ts.URL+"/locks/99/votes")
	assert.Equal(t, http.StatusNotFound, code)
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	if err != nil {
		t.Fatal(err)
	}
	r, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return r, res.StatusCode
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/lvldb"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

func TestBook(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)
	book := New(thor.CustodyNamespace, st)

	token := thor.BytesToAddress([]byte("vvet"))
	alice := thor.BytesToAddress([]byte("alice"))
	bob := thor.BytesToAddress([]byte("bob"))

	require.NoError(t, book.Mint(token, alice, big.NewInt(100)))
	require.NoError(t, book.Transfer(token, alice, bob, big.NewInt(40)))

	bal, err := book.BalanceOf(token, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), bal)
	bal, err = book.BalanceOf(token, bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), bal)

	err = book.Transfer(token, bob, alice, big.NewInt(41))
	assert.ErrorIs(t, err, reverts.ErrInsufficientReserve)
	assert.True(t, reverts.IsRevertErr(err))

	// drained accounts read as zero
	require.NoError(t, book.Transfer(token, bob, alice, big.NewInt(40)))
	bal, err = book.BalanceOf(token, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	// other tokens are separate
	bal, err = book.BalanceOf(thor.BytesToAddress([]byte("usdc")), alice)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	minted, err := book.Minted(token)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), minted)
}

func TestBookRevert(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)
	book := New(thor.CustodyNamespace, st)

	token := thor.BytesToAddress([]byte("vvet"))
	alice := thor.BytesToAddress([]byte("alice"))

	require.NoError(t, book.Mint(token, alice, big.NewInt(100)))
	rev := st.NewCheckpoint()
	require.NoError(t, book.Mint(token, alice, big.NewInt(5)))
	st.RevertTo(rev)

	bal, err := book.BalanceOf(token, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)

	require.NoError(t, st.Commit(db))
	bal, err = New(thor.CustodyNamespace, state.New(db)).BalanceOf(token, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)
}

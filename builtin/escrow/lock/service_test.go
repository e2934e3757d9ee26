// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lock

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/lvldb"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(thor.EscrowNamespace, state.New(db)))
}

func TestService_CreateGet(t *testing.T) {
	svc := newService(t)
	owner := thor.BytesToAddress([]byte("owner"))

	id, err := svc.Create(&Lock{Owner: owner, Amount: big.NewInt(10), Kind: KindDecaying, UnlockTime: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id2, err := svc.Create(&Lock{Owner: owner, Amount: big.NewInt(5), Kind: KindPermanent})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)

	l, err := svc.GetExisting(1)
	require.NoError(t, err)
	assert.Equal(t, owner, l.Owner)
	assert.Equal(t, big.NewInt(10), l.Amount)
	assert.Nil(t, l.Attachment)

	_, err = svc.GetExisting(3)
	assert.ErrorIs(t, err, reverts.ErrInvalidTokenID)

	missing, err := svc.Get(3)
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestService_Burn(t *testing.T) {
	svc := newService(t)
	l := &Lock{Owner: thor.BytesToAddress([]byte("owner")), Amount: big.NewInt(10), Kind: KindDecaying, UnlockTime: 100}
	id, err := svc.Create(l)
	require.NoError(t, err)

	require.NoError(t, svc.Burn(id, l))
	_, err = svc.GetExisting(id)
	assert.ErrorIs(t, err, reverts.ErrInvalidTokenID)

	// ids are never reused
	next, err := svc.Create(&Lock{Amount: big.NewInt(1), Kind: KindDecaying})
	require.NoError(t, err)
	assert.Equal(t, id+1, next)
}

func TestService_Supply(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.AddSupply(big.NewInt(100)))
	require.NoError(t, svc.SubSupply(big.NewInt(40)))
	supply, err := svc.Supply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), supply)
	assert.Error(t, svc.SubSupply(big.NewInt(61)))
}

func TestLock_Variants(t *testing.T) {
	owner := thor.BytesToAddress([]byte("owner"))
	spender := thor.BytesToAddress([]byte("spender"))

	decaying := &Lock{Owner: owner, Amount: big.NewInt(10), Kind: KindDecaying, UnlockTime: 100}
	assert.True(t, decaying.IsTransferable())
	assert.False(t, decaying.IsPermanent())
	assert.True(t, decaying.IsExpired(100))
	assert.False(t, decaying.IsExpired(99))
	assert.Equal(t, uint64(100), decaying.Locked().End)

	assert.True(t, decaying.IsApprovedOrOwner(owner))
	assert.False(t, decaying.IsApprovedOrOwner(spender))
	assert.False(t, decaying.IsApprovedOrOwner(thor.Address{}))
	decaying.Approved = spender
	assert.True(t, decaying.IsApprovedOrOwner(spender))

	managed := &Lock{Owner: owner, Amount: big.NewInt(7), Kind: KindManaged}
	assert.True(t, managed.IsPermanent())
	assert.False(t, managed.IsTransferable())
	assert.True(t, managed.Locked().Permanent)
	assert.Equal(t, big.NewInt(7), managed.Locked().Amount)

	attached := &Lock{
		Owner:      owner,
		Amount:     big.NewInt(10),
		Kind:       KindAttached,
		Attachment: &Attachment{ManagedID: 2, Weight: big.NewInt(9)},
	}
	assert.False(t, attached.IsTransferable())
	assert.Equal(t, 0, attached.Locked().Amount.Sign())

	c := attached.Copy()
	c.Attachment.Weight.SetInt64(1)
	assert.Equal(t, big.NewInt(9), attached.Attachment.Weight)

	assert.Equal(t, "attached", KindAttached.String())
	assert.False(t, (*Lock)(nil).Exists())
}

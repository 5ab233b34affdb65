package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

func TestJobRegistry_RegisterPublicKey(t *testing.T) {
	ts := NewTestSetup(t)
	acc := ts.newAccount()

	_, err := ts.Registry.RegisterPublicKey(ts.ctx, acc.addr, []byte{0x02})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.EqualError(t, err, ErrMsgInvalidPubKeyLength)

	pubkey := signing.CompressedPubKey(acc.key)
	user, err := ts.Registry.RegisterPublicKey(ts.ctx, acc.addr, pubkey)
	require.NoError(t, err)
	assert.True(t, user.Registered())
	assert.Equal(t, models.HexBytes(pubkey), user.PublicKey)

	_, err = ts.Registry.RegisterPublicKey(ts.ctx, acc.addr, pubkey)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestJobRegistry_Users(t *testing.T) {
	ts := NewTestSetup(t)
	acc := ts.newAccount()
	avatar := contentref.MustParse(testCID)

	_, err := ts.Registry.GetUser(ts.ctx, acc.addr)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ts.Registry.UpdateUser(ts.ctx, acc.addr, Profile{Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := ts.Registry.RegisterUser(ts.ctx, acc.addr, signing.CompressedPubKey(acc.key), Profile{
		Name:   "alice",
		Bio:    "translator",
		Avatar: avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)

	user, err = ts.Registry.UpdateUser(ts.ctx, acc.addr, Profile{Name: "alice b.", Bio: "editor"})
	require.NoError(t, err)
	assert.Equal(t, "alice b.", user.Name)
	assert.True(t, user.Avatar.IsEmpty())

	// Posting a job creates an unregistered user row for the creator
	creator := ts.funded(100)
	ts.postJob(creator, ts.jobRequest(100))
	_, err = ts.Registry.UpdateUser(ts.ctx, creator.addr, Profile{Name: "bob"})
	assert.ErrorIs(t, err, ErrInvalidState)

	users, err := ts.Registry.ListUsers(ts.ctx, &models.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestJobRegistry_RegisterArbitrator(t *testing.T) {
	ts := NewTestSetup(t)
	acc := ts.newAccount()
	pubkey := signing.CompressedPubKey(acc.key)

	_, err := ts.Registry.RegisterArbitrator(ts.ctx, acc.addr, pubkey, Profile{}, models.MaxBps+1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ts.Registry.RegisterArbitrator(ts.ctx, acc.addr, pubkey[:32], Profile{}, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	arb, err := ts.Registry.RegisterArbitrator(ts.ctx, acc.addr, pubkey, Profile{Name: "judge"}, 250)
	require.NoError(t, err)
	assert.Equal(t, uint32(250), arb.FeeBps)

	_, err = ts.Registry.RegisterArbitrator(ts.ctx, acc.addr, pubkey, Profile{}, 100)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = ts.Registry.GetArbitrator(ts.ctx, ts.newAccount().addr)
	assert.ErrorIs(t, err, ErrNotFound)

	ts.registerArbitrator(0)
	arbs, err := ts.Registry.ListArbitrators(ts.ctx, &models.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, arbs, 2)
}

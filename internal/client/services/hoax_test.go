package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoax_SignedInHasNoQuota(t *testing.T) {
	api := &fakeClient{CheckRet: &models.Prediction{Label: "hoax", Confidence: 0.9}}
	h := NewHoaxService(api, newStore(t), signedIn, online(true), logging.NopLogger{})
	ctx := context.Background()

	for i := 0; i < GuestCheckLimit+2; i++ {
		p, err := h.Check(ctx, "vaksin mengandung chip")
		require.NoError(t, err)
		assert.True(t, p.IsHoax())
	}
	assert.Equal(t, GuestCheckLimit+2, api.Checks)
	assert.Zero(t, api.GuestChecks)
}

func TestHoax_GuestQuota(t *testing.T) {
	api := &fakeClient{CheckRet: &models.Prediction{Label: "fact"}}
	h := NewHoaxService(api, newStore(t), signedOut, online(true), logging.NopLogger{})
	ctx := context.Background()

	assert.Equal(t, GuestCheckLimit, h.GuestChecksLeft(ctx))
	for i := 0; i < GuestCheckLimit; i++ {
		_, err := h.Check(ctx, "berita")
		require.NoError(t, err)
	}
	assert.Zero(t, h.GuestChecksLeft(ctx))

	_, err := h.Check(ctx, "berita")
	assert.ErrorIs(t, err, ErrGuestLimitReached)
	assert.Equal(t, GuestCheckLimit, api.GuestChecks)
}

func TestHoax_FailedGuestCheckDoesNotCount(t *testing.T) {
	api := &fakeClient{GuestCheckErr: client.ErrUnavailable}
	h := NewHoaxService(api, newStore(t), signedOut, online(true), logging.NopLogger{})
	ctx := context.Background()

	_, err := h.Check(ctx, "berita")
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, GuestCheckLimit, h.GuestChecksLeft(ctx))
}

func TestHoax_RejectsEmptyAndOffline(t *testing.T) {
	api := &fakeClient{}
	h := NewHoaxService(api, newStore(t), signedIn, online(false), logging.NopLogger{})
	ctx := context.Background()

	_, err := h.Check(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = h.Check(ctx, "berita")
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Zero(t, api.Checks)
}

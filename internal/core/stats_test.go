package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/euicc/internal/store"
)

func TestStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *empty)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreateProfile(t, svc, "P", iccidN(i)).ID)
	}
	for _, id := range ids[:2] {
		_, err := svc.EnableProfile(ctx, id)
		require.NoError(t, err)
	}
	_, err = svc.CreateCertificate(ctx, validCertificateInput("pem"))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalProfiles:     5,
		EnabledProfiles:   2,
		DisabledProfiles:  3,
		TotalCertificates: 1,
	}, *stats)
	assert.Equal(t, stats.TotalProfiles, stats.EnabledProfiles+stats.DisabledProfiles)
}

func TestStats_StoreFailure(t *testing.T) {
	boom := errors.New("connection reset by peer")
	svc := NewService(failingStore{MemStore: store.NewMemStore(), err: boom})

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}

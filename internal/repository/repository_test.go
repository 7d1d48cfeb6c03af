package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/model"
)

func TestPairingRepositories(t *testing.T) {
	bolt, err := NewBoltPairingRepository(filepath.Join(t.TempDir(), "data", "pairing.db"))
	require.NoError(t, err)
	defer bolt.Close()

	repos := map[string]PairingRepository{
		"memory": NewMemoryPairingRepository(),
		"bolt":   bolt,
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			device, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, device)

			paired := &model.PairedDevice{
				DeviceID:       "AA:BB:CC:DD:EE:FF",
				ConnectionType: model.ConnectionTypeBluetooth,
				PairedAt:       time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			}
			require.NoError(t, repo.Save(ctx, paired))

			device, err = repo.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, device)
			assert.Equal(t, paired.DeviceID, device.DeviceID)
			assert.Equal(t, paired.ConnectionType, device.ConnectionType)
			assert.True(t, paired.PairedAt.Equal(device.PairedAt))

			require.NoError(t, repo.Clear(ctx))
			device, err = repo.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, device)
		})
	}

	assert.False(t, repos["memory"].Persistent())
	assert.True(t, repos["bolt"].Persistent())
}

func TestBoltPairingRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.db")
	ctx := context.Background()

	first, err := NewBoltPairingRepository(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, &model.PairedDevice{DeviceID: "printer-1", ConnectionType: model.ConnectionTypeBluetooth}))
	require.NoError(t, first.Close())

	second, err := NewBoltPairingRepository(path)
	require.NoError(t, err)
	defer second.Close()

	device, err := second.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, "printer-1", device.DeviceID)
}

func TestMemoryProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	names := []string{"Roti Tawar", "Brownies", "Croissant"}
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		ids[i] = uuid.New()
		require.NoError(t, repo.Create(ctx, &model.Product{
			ID:        ids[i],
			Name:      name,
			Price:     decimal.NewFromInt(10000),
			Active:    i != 2,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Croissant", all[0].Name)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Brownies", active[0].Name)
	assert.Equal(t, "Roti Tawar", active[1].Name)

	require.NoError(t, repo.Delete(ctx, ids[0]))
	_, err = repo.GetByID(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Product{ID: uuid.New()}), ErrNotFound)
}

func TestMemoryTransactionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransactionRepository()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	for i, age := range []time.Duration{0, 48 * time.Hour, 240 * time.Hour} {
		trx, err := model.NewTransaction(
			[]model.CartItem{{Name: "Brownies", Price: decimal.NewFromInt(25000), Quantity: i + 1}},
			decimal.Zero, decimal.NewFromInt(100000), now.Add(-age),
		)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, trx))
	}

	list, err := repo.List(ctx, &TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
	assert.Len(t, list[0].Items, 1)

	since := now.Add(-72 * time.Hour)
	recent, err := repo.List(ctx, &TransactionFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	totals, err := repo.Stats(ctx, &since)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Count)
	assert.True(t, decimal.NewFromInt(75000).Equal(totals.Total))
	assert.True(t, decimal.NewFromInt(37500).Equal(totals.Average()))

	got, err := repo.GetByNumber(ctx, list[0].TransactionNumber)
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, got.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPrintJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPrintJobRepository()

	ok := model.NewPrintJob("TRX1", model.PrintJobSourceCheckout)
	require.NoError(t, repo.Create(ctx, ok))
	ok.ByteCount = 512
	ok.Complete(model.PrintJobStatusSuccess, nil)
	require.NoError(t, repo.Update(ctx, ok))

	rejected := model.NewPrintJob("TRX2", model.PrintJobSourceAPI)
	rejected.Complete(model.PrintJobStatusRejected, assert.AnError)
	require.NoError(t, repo.Create(ctx, rejected))

	status := model.PrintJobStatusSuccess
	jobs, total, err := repo.List(ctx, &PrintJobFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, "TRX1", jobs[0].TransactionNumber)

	stats, err := repo.GetStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 1, stats.SuccessfulJobs)
	assert.Equal(t, 1, stats.RejectedJobs)
	assert.Equal(t, int64(512), stats.TotalBytes)
	assert.Equal(t, 1, stats.BySource[model.PrintJobSourceAPI])

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Equal(t, []int{}, paginate(items, 2, 10))
	assert.Equal(t, items, paginate(items, 0, 0))
}

package service

import (
	"context"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.seeder.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Users: 2, Categories: 7, Products: 20, Movements: 5}, *report)

	again, err := f.seeder.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{}, *again)

	products, err := f.product.List(ctx, "")
	require.NoError(t, err)
	for _, p := range products {
		closing, err := f.stock.ClosingStock(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, closing.InSync, p.Name)
		if p.Name == "Tomato" {
			assert.Equal(t, "50", p.CurrentStock.String())
		}
	}

	_, err = f.auth.Login(ctx, &LoginRequest{Email: "staff@freshcount.com", Password: "staff123"})
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.seeder.EnsureAdmin(ctx, "boss@example.com", "secret1", "Boss")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.seeder.EnsureAdmin(ctx, "boss@example.com", "other-pass", "Boss")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := f.users.FindByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.True(t, user.CheckPassword("secret1"))

	_, err = f.seeder.EnsureAdmin(ctx, "short@example.com", "123", "Short")
	assert.Error(t, err)
}

func TestMovementTrend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Onion", "50")
	f.record(t, p, model.MovementIn, "10", adminActor)
	f.record(t, p, model.MovementOut, "4", adminActor)

	trend, err := f.dashboard.MovementTrend(ctx, 0)
	require.NoError(t, err)
	require.Len(t, trend, 7)

	today := trend[len(trend)-1]
	assert.Equal(t, time.Now().Format("2006-01-02"), today.Date)
	assert.Equal(t, "10", today.Inbound.String())
	assert.Equal(t, "4", today.Outbound.String())
	assert.True(t, trend[0].Inbound.IsZero())

	_, err = f.dashboard.MovementTrend(ctx, 1000)
	assert.Error(t, err)
}

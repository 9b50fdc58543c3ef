package service

import (
	"context"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// staleMovementRepo hands out a copy of an entry as it was read before a
// concurrent delete committed.
type staleMovementRepo struct {
	repository.MovementRepository
	snapshot model.StockMovement
}

func (r staleMovementRepo) WithTx(tx *gorm.DB) repository.MovementRepository {
	return staleMovementRepo{MovementRepository: r.MovementRepository.WithTx(tx), snapshot: r.snapshot}
}

func (r staleMovementRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	m := r.snapshot
	return &m, nil
}

// racingProductRepo fails every balance write as if another writer got there first.
type racingProductRepo struct {
	repository.ProductRepository
}

func (r racingProductRepo) WithTx(tx *gorm.DB) repository.ProductRepository {
	return racingProductRepo{ProductRepository: r.ProductRepository.WithTx(tx)}
}

func (r racingProductRepo) UpdateStock(ctx context.Context, p *model.Product, newStock decimal.Decimal, updatedBy string) error {
	return repository.ErrStaleStock
}

func (f *fixture) movementCount(t *testing.T, p *model.Product) int {
	t.Helper()
	movements, err := f.movements.FindByProductAsc(context.Background(), p.ID)
	require.NoError(t, err)
	return len(movements)
}

func TestDeleteMovementTwiceReversesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tomato := f.createProduct(t, "Tomato", "40")
	f.record(t, tomato, model.MovementIn, "10", adminActor)
	out := f.record(t, tomato, model.MovementOut, "5", adminActor)

	_, err := f.stock.DeleteMovement(ctx, out.Movement.ID, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "50", f.currentStock(t, tomato))

	// second admin still holds the entry read before the first delete committed
	late := NewStockService(f.db, f.products,
		staleMovementRepo{MovementRepository: f.movements, snapshot: *out.Movement},
		nil, nil, nil, zap.NewNop())
	_, err = late.DeleteMovement(ctx, out.Movement.ID, adminActor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	assert.Equal(t, "50", f.currentStock(t, tomato))
	closing, err := f.stock.ClosingStock(ctx, tomato.ID)
	require.NoError(t, err)
	assert.True(t, closing.InSync)
}

func TestStaleBalanceWriteIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Garlic", "20")
	in := f.record(t, p, model.MovementIn, "5", adminActor)

	racing := NewStockService(f.db, racingProductRepo{ProductRepository: f.products}, f.movements,
		f.publisher, nil, nil, zap.NewNop())
	published := len(f.publisher.all())

	_, err := racing.RecordMovement(ctx, &RecordMovementRequest{
		ProductID: p.ID.String(),
		Type:      model.MovementIn,
		Quantity:  dec("3"),
	}, adminActor)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 1, f.movementCount(t, p), "movement insert must roll back")
	assert.Equal(t, "25", f.currentStock(t, p))

	_, err = racing.DeleteMovement(ctx, in.Movement.ID, adminActor)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	_, err = f.stock.GetMovement(ctx, in.Movement.ID)
	require.NoError(t, err, "entry must survive a failed reversal")
	assert.Equal(t, "25", f.currentStock(t, p))

	assert.Len(t, f.publisher.all(), published, "nothing is published for rolled back writes")
}

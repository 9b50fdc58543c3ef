package service

import (
	"context"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	veg := f.createCategory(t, "Veg")
	_, err := f.category.Create(ctx, &CategoryRequest{Name: "  Veg "}, adminActor)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = f.category.Create(ctx, &CategoryRequest{Name: " "}, adminActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	fruits := f.createCategory(t, "Fruits")
	name := "Veg"
	_, err = f.category.Update(ctx, fruits.ID, &UpdateCategoryRequest{Name: &name}, adminActor)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	desc := "Fresh vegetables"
	updated, err := f.category.Update(ctx, veg.ID, &UpdateCategoryRequest{Description: &desc}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Veg", updated.Name)
	assert.Equal(t, desc, updated.Description)

	_, err = f.category.Update(ctx, uuid.New(), &UpdateCategoryRequest{Description: &desc}, adminActor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	list, err := f.category.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Fruits", list[0].Name)
}

func TestCategoryDeleteBlockedByProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCategory(t, "Flour")

	p, err := f.product.Create(ctx, &CreateProductRequest{
		Name: "Wheat Flour", CategoryID: c.ID.String(), UnitType: model.UnitKg, OpeningStock: dec("100"),
	}, adminActor)
	require.NoError(t, err)

	err = f.category.Delete(ctx, c.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	require.NoError(t, f.product.Delete(ctx, p.ID))
	require.NoError(t, f.category.Delete(ctx, c.ID))

	_, err = f.category.Get(ctx, c.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(f.category.Delete(ctx, c.ID)))
}

func TestProductDeleteBlockedByMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Paper Bags", "500")
	in := f.record(t, p, model.MovementIn, "10", adminActor)

	err := f.product.Delete(ctx, p.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = f.stock.DeleteMovement(ctx, in.Movement.ID, adminActor)
	require.NoError(t, err)
	require.NoError(t, f.product.Delete(ctx, p.ID))

	_, err = f.product.Get(ctx, p.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestProductCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCategory(t, "Groceries")

	_, err := f.product.Create(ctx, &CreateProductRequest{
		Name: "Oil", CategoryID: c.ID.String(), UnitType: "barrel", OpeningStock: dec("1"),
	}, adminActor)
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "kg, gram, litre, ml, unit, piece")

	_, err = f.product.Create(ctx, &CreateProductRequest{
		Name: "Oil", CategoryID: c.ID.String(), UnitType: model.UnitLitre, OpeningStock: dec("-1"),
	}, adminActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.product.Create(ctx, &CreateProductRequest{
		Name: "Oil", CategoryID: c.ID.String(), UnitType: model.UnitLitre,
	}, adminActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.product.Create(ctx, &CreateProductRequest{
		Name: "Oil", CategoryID: uuid.NewString(), UnitType: model.UnitLitre, OpeningStock: dec("1"),
	}, adminActor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	p, err := f.product.Create(ctx, &CreateProductRequest{
		Name: "Oil", CategoryID: c.ID.String(), UnitType: model.UnitLitre, OpeningStock: dec("50"),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "50", p.CurrentStock.String())

	byCategory, err := f.product.List(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)
	_, err = f.product.List(ctx, "not-a-uuid")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestProductUpdateRebasesOpeningStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Potato", "60")
	f.record(t, p, model.MovementOut, "50", adminActor) // 10 left

	name := "Baby Potato"
	unit := model.UnitGram
	updated, err := f.product.Update(ctx, p.ID, &UpdateProductRequest{
		Name: &name, UnitType: &unit, OpeningStock: dec("70"),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Baby Potato", updated.Name)
	assert.Equal(t, "70", updated.OpeningStock.String())
	assert.Equal(t, "20", updated.CurrentStock.String())

	closing, err := f.stock.ClosingStock(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, closing.InSync)

	// 20 - 25 would be negative
	_, err = f.product.Update(ctx, p.ID, &UpdateProductRequest{OpeningStock: dec("45")}, adminActor)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))
	assert.Equal(t, "20", f.currentStock(t, p))

	bad := model.UnitType("ton")
	_, err = f.product.Update(ctx, p.ID, &UpdateProductRequest{UnitType: &bad}, adminActor)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	missing := uuid.NewString()
	_, err = f.product.Update(ctx, p.ID, &UpdateProductRequest{CategoryID: &missing}, adminActor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.product.Update(ctx, uuid.New(), &UpdateProductRequest{Name: &name}, adminActor)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

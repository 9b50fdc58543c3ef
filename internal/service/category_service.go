package service

import (
	"context"
	"errors"
	"strings"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, req *CategoryRequest, actor Actor) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest, actor Actor) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

type categoryService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        *cache.Cache
	log          *zap.Logger
}

func NewCategoryService(
	db *gorm.DB,
	cRepo repository.CategoryRepository,
	pRepo repository.ProductRepository,
	summaryCache *cache.Cache,
	log *zap.Logger,
) CategoryService {
	return &categoryService{
		db:           db,
		categoryRepo: cRepo,
		productRepo:  pRepo,
		cache:        summaryCache,
		log:          log.Named("category"),
	}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Category not found")
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, req *CategoryRequest, actor Actor) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	category := &model.Category{Name: req.Name, Description: req.Description}
	category.CreatedBy = actor.ID
	category.UpdatedBy = actor.ID
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest, actor Actor) (*model.Category, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Category not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("Category name cannot be empty")
		}
		if name != category.Name {
			if err := s.ensureNameFree(ctx, name, category.ID); err != nil {
				return nil, err
			}
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	category.UpdatedBy = actor.ID

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

// Delete refuses while any product still references the category. The check
// and the delete share a transaction; the foreign key backs it up.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := s.categoryRepo.WithTx(tx)
		if _, err := categories.FindByID(ctx, id); err != nil {
			return apperror.FromDB(err, "Category not found")
		}

		count, err := s.productRepo.WithTx(tx).CountByCategory(ctx, id)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		if count > 0 {
			return apperror.Conflict("Cannot delete category with existing products").
				WithDetail("productCount", count)
		}
		return apperror.FromDB(categories.Delete(ctx, id), "")
	})
	if err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cache.SummaryKey); err != nil {
		s.log.Warn("failed to invalidate summary cache", zap.Error(err))
	}
	s.log.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *categoryService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err == nil && existing.ID != self {
		return apperror.Conflict("Category already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.FromDB(err, "")
	}
	return nil
}

// categoryWriteError maps a lost race on the unique name index to a conflict.
func categoryWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("Category already exists")
	}
	return apperror.FromDB(err, "Category not found")
}

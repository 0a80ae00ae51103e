package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
	"github.com/GregMSThompson/expense-backend/internal/models"
	"github.com/GregMSThompson/expense-backend/pkg/logger"
)

type categoryCSStore interface {
	List(ctx context.Context, typ *models.TransactionType) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	CreateMany(ctx context.Context, cats []models.Category) error
}

type defaultCategory struct {
	name string
	typ  models.TransactionType
}

// Seeding order matters: names are matched case-insensitively across types,
// so the income "Other" is skipped once the expense one exists.
var defaultCategories = []defaultCategory{
	{"Grocery", models.TransactionExpense},
	{"Transport", models.TransactionExpense},
	{"Food & Dining", models.TransactionExpense},
	{"Shopping", models.TransactionExpense},
	{"Utilities", models.TransactionExpense},
	{"Healthcare", models.TransactionExpense},
	{"Entertainment", models.TransactionExpense},
	{"Rent", models.TransactionExpense},
	{"Other", models.TransactionExpense},
	{"Salary", models.TransactionIncome},
	{"Freelance", models.TransactionIncome},
	{"Shop Sales", models.TransactionIncome},
	{"Investment", models.TransactionIncome},
	{"Gift", models.TransactionIncome},
	{"Other", models.TransactionIncome},
}

type categoryService struct {
	store    categoryCSStore
	clockNow func() time.Time
	newID    func() string
}

func NewCategoryService(store categoryCSStore) *categoryService {
	return &categoryService{
		store:    store,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

func (s *categoryService) ListCategories(ctx context.Context, typ string) ([]models.Category, error) {
	var filter *models.TransactionType
	if v := strings.TrimSpace(typ); v != "" {
		t := models.TransactionType(v)
		if !t.Valid() {
			return nil, errs.NewValidationError("type must be income or expense")
		}
		filter = &t
	}

	cats, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	typ := models.TransactionType(strings.TrimSpace(req.Type))
	if name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	if !typ.Valid() {
		return nil, errs.NewValidationError("type must be income or expense")
	}

	now := s.clockNow()
	c := &models.Category{
		CategoryID: s.newID(),
		Name:       name,
		Type:       typ,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("category created", "category_id", c.CategoryID, "name", c.Name)
	return c, nil
}

// SeedDefaults adds every default category whose name is not already taken.
// Running it twice adds nothing the second time.
func (s *categoryService) SeedDefaults(ctx context.Context) (dto.SeedResult, error) {
	existing, err := s.store.List(ctx, nil)
	if err != nil {
		return dto.SeedResult{}, err
	}

	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[strings.ToLower(c.Name)] = true
	}

	now := s.clockNow()
	var toAdd []models.Category
	for _, d := range defaultCategories {
		key := strings.ToLower(d.name)
		if taken[key] {
			continue
		}
		taken[key] = true
		toAdd = append(toAdd, models.Category{
			CategoryID: s.newID(),
			Name:       d.name,
			Type:       d.typ,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.store.CreateMany(ctx, toAdd); err != nil {
		return dto.SeedResult{}, err
	}

	logger.FromContext(ctx).Info("default categories seeded", "added", len(toAdd))
	return dto.SeedResult{Added: len(toAdd)}, nil
}

package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// CategoryService manages category CRUD. Categories are free-text labels on
// entries; deleting one also deletes the owner's entries that carried it.
type CategoryService struct {
	store  *storage.Repository
	logger *log.Logger
}

func NewCategoryService(store *storage.Repository, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: logger.WithComponent(log.ComponentApp),
	}
}

func (s *CategoryService) Create(ctx context.Context, user *core.User, c core.Category) (core.Category, error) {
	c.UserID = user.ID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if onFreePlan(user) {
		count, err := s.store.CountCategories(ctx, user.ID)
		if err != nil {
			return core.Category{}, err
		}
		if count >= FreeCategoryLimit {
			return core.Category{}, ErrFreeLimitReached
		}
	}

	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id

	s.logger.InfoContext(ctx, "category created",
		log.FieldUserID, user.ID, log.FieldCategory, c.Name)
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) Update(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return s.store.GetCategory(ctx, userID, c.ID)
}

// Delete removes the category and cascades to the owner's entries that
// carried its name.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteEntriesByCategory(ctx, userID, c.Name); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category deleted",
		log.FieldUserID, userID, log.FieldCategory, c.Name)
	return nil
}

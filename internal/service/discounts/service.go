// Package discounts manages percentage discount codes. Whether a code is
// usable is decided when it is applied to an order, not here.
package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository"
)

var (
	ErrDiscountNotFound  = errors.New("discount not found")
	ErrCodeTaken         = errors.New("discount code already exists")
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrEmptyCode         = errors.New("discount code must not be empty")
)

// Store is the storage surface the discount service needs.
type Store interface {
	CreateDiscount(ctx context.Context, d domain.Discount) (int64, error)
	DiscountByCode(ctx context.Context, code string) (*domain.Discount, error)
	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
	UpdateDiscount(ctx context.Context, code string, d domain.Discount) error
	DeleteDiscount(ctx context.Context, code string) error
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, d domain.Discount) (*domain.Discount, error) {
	const op = "discounts.Service.Create"

	d.Code = domain.NormalizeDiscountCode(d.Code)
	if d.Code == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCode)
	}
	if d.Percentage < 0 || d.Percentage > 100 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPercentage)
	}

	if _, err := s.store.CreateDiscount(ctx, d); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrCodeTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.store.DiscountByCode(ctx, d.Code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Discount, error) {
	const op = "discounts.Service.GetByCode"

	d, err := s.store.DiscountByCode(ctx, domain.NormalizeDiscountCode(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrDiscountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Discount, error) {
	const op = "discounts.Service.List"

	out, err := s.store.ListDiscounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Update rewrites the discount identified by code. Orders that already
// applied it keep their total; the change affects future applications only.
func (s *Service) Update(ctx context.Context, code string, d domain.Discount) error {
	const op = "discounts.Service.Update"

	d.Code = domain.NormalizeDiscountCode(d.Code)
	if d.Code == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyCode)
	}
	if d.Percentage < 0 || d.Percentage > 100 {
		return fmt.Errorf("%s: %w", op, ErrInvalidPercentage)
	}

	err := s.store.UpdateDiscount(ctx, domain.NormalizeDiscountCode(code), d)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%s: %w", op, ErrDiscountNotFound)
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%s: %w", op, ErrCodeTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	const op = "discounts.Service.Delete"

	err := s.store.DeleteDiscount(ctx, domain.NormalizeDiscountCode(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrDiscountNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

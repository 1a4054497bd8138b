package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/media"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type Service struct {
	repo     Repository
	uploader media.Uploader
}

func NewService(repo Repository, uploader media.Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (Product, error) {
	if !actor.IsAdmin() {
		return Product{}, apperr.Forbidden("only admin can create products")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Product{}, apperr.Validation("field %s failed on %s", verrs[0].Field(), verrs[0].Tag())
		}
		return Product{}, apperr.Validation("invalid product payload")
	}
	if !in.Price.IsPositive() {
		return Product{}, apperr.Validation("price must be positive")
	}
	p := Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Category:    in.Category,
	}
	if in.DiscountedPrice != nil {
		if in.DiscountedPrice.IsNegative() {
			return Product{}, apperr.Validation("discountedPrice must not be negative")
		}
		p.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	if in.Image != "" {
		url, err := s.uploader.Upload(ctx, in.Image, "products")
		if err != nil {
			if errors.Is(err, media.ErrInvalidImage) {
				return Product{}, apperr.Validation("image must be an image")
			}
			return Product{}, fmt.Errorf("upload product image: %w", err)
		}
		p.Image = url
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperr.NotFound("product")
	}
	return p, err
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Lookup returns the products that exist among ids; used to price order items.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]Product, error) {
	return s.repo.GetMany(ctx, ids)
}

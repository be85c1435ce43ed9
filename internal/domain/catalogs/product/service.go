package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estoque/internal/core/apperror"
	"estoque/internal/core/id"
	"estoque/internal/core/itemcode"
	"estoque/pkg/logger"
)

// Service manages the secondary catalog and the conversion table.
type Service struct {
	repo Repository
}

// NewService creates a product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ConversionInput is an unnormalized conversion as received from clients.
type ConversionInput struct {
	Code     string
	FromUnit string
	ToUnit   string
	Factor   decimal.Decimal
}

// CreateConversion normalizes and stores a conversion.
func (s *Service) CreateConversion(ctx context.Context, in ConversionInput) (*Conversion, error) {
	code, err := itemcode.Normalize(in.Code)
	if err != nil {
		return nil, apperror.NewInvalidItemCode("code", in.Code)
	}

	c := &Conversion{
		ID:        id.New(),
		Code:      code,
		FromUnit:  NormalizeUnit(in.FromUnit),
		ToUnit:    NormalizeUnit(in.ToUnit),
		Factor:    in.Factor,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.FromUnit == c.ToUnit {
		return nil, apperror.NewValidation("fromUnit and toUnit must differ")
	}

	existing, err := s.repo.ListConversions(ctx, &code)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	for _, e := range existing {
		if NormalizeUnit(e.FromUnit) == c.FromUnit {
			return nil, apperror.NewDuplicate("conversion", "fromUnit", c.FromUnit).
				WithDetail("code", code)
		}
	}

	if err := s.repo.CreateConversion(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversion: %w", err)
	}

	logger.Info(ctx, "conversion created",
		"code", c.Code, "from", c.FromUnit, "to", c.ToUnit, "factor", c.Factor.String())
	return c, nil
}

// DeleteConversion removes a conversion.
func (s *Service) DeleteConversion(ctx context.Context, conversionID id.ID) error {
	if err := s.repo.DeleteConversion(ctx, conversionID); err != nil {
		return err
	}
	logger.Info(ctx, "conversion deleted", "conversion_id", conversionID)
	return nil
}

// ListConversions returns conversions, optionally for one raw code.
func (s *Service) ListConversions(ctx context.Context, rawCode string) ([]Conversion, error) {
	if strings.TrimSpace(rawCode) == "" {
		return s.repo.ListConversions(ctx, nil)
	}
	code, err := itemcode.Normalize(rawCode)
	if err != nil {
		return nil, apperror.NewInvalidItemCode("code", rawCode)
	}
	return s.repo.ListConversions(ctx, &code)
}

// UpsertCatalogProduct writes a secondary catalog entry.
func (s *Service) UpsertCatalogProduct(ctx context.Context, rawCode, description, unit string) (*Product, error) {
	code, err := itemcode.Normalize(rawCode)
	if err != nil {
		return nil, apperror.NewInvalidItemCode("code", rawCode)
	}
	p := &Product{
		Code:        code,
		Origin:      OriginCatalog,
		Description: strings.TrimSpace(description),
		Unit:        NormalizeUnit(unit),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertCatalogProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert catalog product: %w", err)
	}
	return p, nil
}

package promo

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Length bounds for a promo code.
const (
	MinCodeLength = 8
	MaxCodeLength = 10
)

// Validator checks a promo code before an order is placed.
type Validator interface {
	Validate(ctx context.Context, code string) error
}

// ListValidator accepts codes present in at least minMatch of its lists.
type ListValidator struct {
	lists    []Codes
	minMatch int
	logger   zerolog.Logger
}

// Load reads every named list from src concurrently and builds a validator.
// Any list failing to load fails the whole load.
func Load(ctx context.Context, src Source, names []string, minMatch int, logger zerolog.Logger) (*ListValidator, error) {
	logger = logger.With().Str("component", "promo-validator").Logger()
	if minMatch < 1 {
		minMatch = 1
	}

	lists := make([]Codes, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			rc, err := src.Open(gctx, name)
			if err != nil {
				return err
			}
			defer rc.Close()

			codes, err := ReadCodes(gctx, rc)
			if err != nil {
				return fmt.Errorf("failed to load promo list %s: %w", name, err)
			}
			lists[i] = codes
			logger.Info().Str("list", name).Int("codes", codes.Len()).Msg("promo list loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info().Int("lists", len(lists)).Int("min_match", minMatch).Msg("promo validator ready")
	return NewListValidator(lists, minMatch, logger), nil
}

// NewListValidator creates a validator over already loaded lists.
func NewListValidator(lists []Codes, minMatch int, logger zerolog.Logger) *ListValidator {
	return &ListValidator{lists: lists, minMatch: minMatch, logger: logger}
}

// Validate returns model.ErrInvalidPromoLength for codes outside 8..10
// characters and model.ErrInvalidPromoCode for codes found in too few lists.
func (v *ListValidator) Validate(ctx context.Context, code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return model.ErrInvalidPromoLength
	}

	matches := 0
	for i, list := range v.lists {
		if err := ctx.Err(); err != nil {
			return err
		}
		if list.Contains(code) {
			matches++
			if matches >= v.minMatch {
				break
			}
		}
		// Not enough lists left to reach minMatch.
		if matches+len(v.lists)-i-1 < v.minMatch {
			break
		}
	}

	if matches < v.minMatch {
		v.logger.Debug().Str("promo_code", code).Int("matches", matches).Msg("promo code rejected")
		return model.ErrInvalidPromoCode
	}
	return nil
}

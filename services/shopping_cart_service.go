package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodgram/metrics"
	"foodgram/models"
	"foodgram/repositories"
)

const (
	CartFileName    = "cart.txt"
	CartContentType = "text/plain"
)

// ShoppingCartService consolidates the ingredients of every recipe in a
// user's cart into one shopping list.
type ShoppingCartService interface {
	Items(ctx context.Context, caller models.Identity) ([]models.ShoppingListItem, error)
	BuildReport(ctx context.Context, caller models.Identity) (string, error)
}

type shoppingCartService struct {
	store repositories.Store
}

func NewShoppingCartService(store repositories.Store) ShoppingCartService {
	return &shoppingCartService{store: store}
}

// Items returns one line per (ingredient name, unit) with summed amounts,
// sorted by name then unit.
func (s *shoppingCartService) Items(ctx context.Context, caller models.Identity) ([]models.ShoppingListItem, error) {
	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	items, err := s.store.Recipes().ShoppingList(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("shopping list: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items, nil
}

func (s *shoppingCartService) BuildReport(ctx context.Context, caller models.Identity) (string, error) {
	items, err := s.Items(ctx, caller)
	if err != nil {
		return "", err
	}
	metrics.CartReportLines.Observe(float64(len(items)))
	return RenderReport(items), nil
}

// RenderReport renders the fixed-width text report. Names are padded to 30
// columns, amounts right-aligned to 10 and units padded to 10.
func RenderReport(items []models.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("| %-30s| %s \n", "Name", "Amount"))
	b.WriteString("|" + strings.Repeat("-", 31) + "|" + strings.Repeat("-", 14) + "\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("| %-30s| %10d %-10s\n", item.Name, item.Amount, item.MeasurementUnit))
	}
	return b.String()
}

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/domain"
	"ai-skincoach/internal/store"
)

// handleCabinet resolves the change target against the current inventory by
// product name and brand. Removal requires an exact match; add and update
// fall back to a same-category product before creating a new catalog entry.
func (d *Dispatcher) handleCabinet(ctx context.Context, userID int64, c *actions.CabinetChange) Result {
	snap := d.store.Snapshot(userID)

	switch c.Action {
	case "remove":
		item, ok := findCabinetItem(snap, c.ProductName, c.ProductBrand)
		if !ok {
			return Result{Message: fmt.Sprintf("I couldn't find %s by %s in your cabinet.", c.ProductName, c.ProductBrand)}
		}
		if err := d.store.DeleteProductFromInventory(ctx, userID, item.ID); err != nil {
			return failure(actions.KindCabinetAction, err, "Sorry, I couldn't remove that product.")
		}
		return Result{
			Success: true,
			Message: fmt.Sprintf("Removed %s by %s from your cabinet.", c.ProductName, c.ProductBrand),
		}

	case "add", "update":
		product := resolveCabinetProduct(snap, c)
		amount := 100
		if c.AmountRemaining != nil {
			amount = *c.AmountRemaining
		}
		if _, err := d.store.AddProductToInventory(ctx, userID, product, amount); err != nil {
			return failure(actions.KindCabinetAction, err, "Sorry, I couldn't update your cabinet.")
		}
		verb := "Added"
		if c.Action == "update" {
			verb = "Updated"
		}
		return Result{
			Success: true,
			Message: fmt.Sprintf("%s %s by %s in your cabinet.", verb, c.ProductName, c.ProductBrand),
		}
	}
	return Result{Message: fmt.Sprintf("Unknown cabinet action %q.", c.Action)}
}

// resolveCabinetProduct picks the catalog entry a cabinet add or update
// refers to: an exact name+brand match, then any product of the same
// category, then a fresh record.
func resolveCabinetProduct(snap store.Snapshot, c *actions.CabinetChange) domain.Product {
	if p, ok := findProduct(snap.Products, c.ProductName, c.ProductBrand); ok {
		return p
	}
	if c.Category != "" {
		for _, p := range snap.Products {
			if strings.EqualFold(p.Category, c.Category) {
				return p
			}
		}
	}
	return domain.Product{
		Name:     c.ProductName,
		Brand:    c.ProductBrand,
		Category: c.Category,
	}
}

// findCabinetItem matches an inventory row through its product's name and
// brand, case-insensitively.
func findCabinetItem(snap store.Snapshot, name, brand string) (domain.InventoryItem, bool) {
	byID := make(map[string]domain.Product, len(snap.Products))
	for _, p := range snap.Products {
		byID[p.ID] = p
	}
	for _, it := range snap.Inventory {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		if strings.EqualFold(p.Name, name) && strings.EqualFold(p.Brand, brand) {
			return it, true
		}
	}
	return domain.InventoryItem{}, false
}

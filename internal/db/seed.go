package db

import (
	"fmt"

	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var seedInventory = []models.InventoryItem{
	{Sku: "UDS-1001", Description: "Deep groove ball bearing 6204-2RS", Mpn: "6204-2RS", Brand: "SKF", QuantityOnHand: 240, UnitCost: decimal.RequireFromString("3.85")},
	{Sku: "UDS-1002", Description: "Hydraulic hose assembly 1/2in x 36in", Mpn: "H-12-36", Brand: "Parker", QuantityOnHand: 35, UnitCost: decimal.RequireFromString("42.10")},
	{Sku: "UDS-1003", Description: "Proximity sensor M18 PNP", Mpn: "E2E-X8MD1", Brand: "Omron", QuantityOnHand: 60, UnitCost: decimal.RequireFromString("57.00")},
	{Sku: "UDS-1004", Description: "V-belt A48", Mpn: "A48", Brand: "Gates", QuantityOnHand: 120, UnitCost: decimal.RequireFromString("9.40")},
}

var seedCustomers = []models.Customer{
	{Name: "Acme Manufacturing", Company: "Acme Manufacturing Inc.", Email: "purchasing@acme.example"},
}

// Seed inserts reference inventory and a demo customer. Existing rows are left alone, so
// it is safe to run repeatedly.
func Seed(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, item := range seedInventory {
			if err := tx.Where(models.InventoryItem{Sku: item.Sku}).FirstOrCreate(&item).Error; err != nil {
				return fmt.Errorf("seed inventory %s: %w", item.Sku, err)
			}
		}
		for _, c := range seedCustomers {
			if err := tx.Where(models.Customer{Name: c.Name}).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("seed customer %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

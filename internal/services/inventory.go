package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/diewo77/uds-rfq/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SkuResolver looks up inventory descriptors. Unknown ids are absent from the result.
type SkuResolver interface {
	ResolveSkus(ctx context.Context, ids []uint) (map[uint]models.SkuDescriptor, error)
}

type InventoryService struct {
	base
}

func NewInventoryService(db *gorm.DB, opts ...Option) *InventoryService {
	return &InventoryService{base: newBase(db, opts)}
}

type InventoryInput struct {
	Sku            string          `json:"sku"`
	Description    string          `json:"description,omitempty"`
	Mpn            string          `json:"mpn,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	QuantityOnHand int             `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

func (s *InventoryService) ResolveSkus(ctx context.Context, ids []uint) (map[uint]models.SkuDescriptor, error) {
	out := make(map[uint]models.SkuDescriptor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&items).Error; err != nil {
		return nil, dbError(err, "inventory item")
	}
	for i := range items {
		out[items[i].ID] = items[i].Descriptor()
	}
	return out, nil
}

func (s *InventoryService) CreateInventoryItem(ctx context.Context, in InventoryInput) (*models.InventoryItem, error) {
	v := make(validation.Violations)
	validation.Required("sku", in.Sku, v)
	validation.NonNegativeInt("quantity_on_hand", in.QuantityOnHand, v)
	validation.NonNegativeDecimal("unit_cost", in.UnitCost, v)
	if !v.Empty() {
		return nil, validationFailed(v)
	}
	item := &models.InventoryItem{
		Sku:            strings.ToUpper(strings.TrimSpace(in.Sku)),
		Description:    in.Description,
		Mpn:            in.Mpn,
		Brand:          in.Brand,
		QuantityOnHand: in.QuantityOnHand,
		UnitCost:       in.UnitCost,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, dbError(err, "inventory item")
	}
	return item, nil
}

func (s *InventoryService) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("inventory item %d not found", id)
	}
	if err != nil {
		return nil, dbError(err, "inventory item")
	}
	return &item, nil
}

// ListInventory searches sku, mpn, brand and description, ordered by sku.
func (s *InventoryService) ListInventory(ctx context.Context, query string, limit, offset int) ([]models.InventoryItem, int64, error) {
	limit, offset = pageBounds(limit, offset)
	q := s.db.WithContext(ctx).Model(&models.InventoryItem{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(sku) LIKE ? OR LOWER(mpn) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?", like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "inventory item")
	}
	var items []models.InventoryItem
	if err := q.Order("sku").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, dbError(err, "inventory item")
	}
	return items, total, nil
}

type CustomerService struct {
	base
}

func NewCustomerService(db *gorm.DB, opts ...Option) *CustomerService {
	return &CustomerService{base: newBase(db, opts)}
}

type CustomerInput struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		v.Add("email", "invalid")
	}
	if !v.Empty() {
		return nil, validationFailed(v)
	}
	c := &models.Customer{Name: strings.TrimSpace(in.Name), Company: in.Company, Email: in.Email, Phone: in.Phone}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, dbError(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, query string, limit, offset int) ([]models.Customer, int64, error) {
	limit, offset = pageBounds(limit, offset)
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "customer")
	}
	var customers []models.Customer
	if err := q.Order("name").Limit(limit).Offset(offset).Find(&customers).Error; err != nil {
		return nil, 0, dbError(err, "customer")
	}
	return customers, total, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

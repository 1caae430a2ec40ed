package services

import (
	"context"
	"fmt"

	"github.com/diewo77/uds-rfq/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportTimeLayout = "2006-01-02 15:04"

// ExportService renders an RFQ's quotation history as an Excel workbook.
type ExportService struct {
	base
	skus SkuResolver
}

func NewExportService(db *gorm.DB, skus SkuResolver, opts ...Option) *ExportService {
	return &ExportService{base: newBase(db, opts), skus: skus}
}

// ExportRfqWorkbook builds a workbook with the sheets Versions (one row per item per
// version), Communications and SKU Changes.
func (s *ExportService) ExportRfqWorkbook(ctx context.Context, rfqID uint) ([]byte, error) {
	if _, err := s.loadRfq(ctx, rfqID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var versions []models.QuotationVersion
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("rfq_id = ?", rfqID).Order("version_number").Find(&versions).Error; err != nil {
		return nil, dbError(err, "quotation version")
	}
	var comms []models.NegotiationCommunication
	if err := db.Where("rfq_id = ?", rfqID).Order("communication_date, id").Find(&comms).Error; err != nil {
		return nil, dbError(err, "communication")
	}
	var changes []models.SkuNegotiationHistory
	if err := db.Where("rfq_id = ?", rfqID).Order("created_at, id").Find(&changes).Error; err != nil {
		return nil, dbError(err, "sku change")
	}

	var skuIDs []uint
	for _, v := range versions {
		for _, it := range v.Items {
			skuIDs = append(skuIDs, it.SkuID)
		}
	}
	for _, c := range changes {
		skuIDs = append(skuIDs, c.SkuID)
	}
	skus := map[uint]models.SkuDescriptor{}
	if s.skus != nil {
		resolved, err := s.skus.ResolveSkus(ctx, skuIDs)
		if err != nil {
			s.log.WarnContext(ctx, "export: sku lookup failed", "rfq_id", rfqID, "error", err)
		} else {
			skus = resolved
		}
	}
	skuCode := func(id uint) string {
		if d, ok := skus[id]; ok {
			return d.Sku
		}
		return fmt.Sprintf("#%d", id)
	}

	var versionRows [][]any
	for _, v := range versions {
		for _, it := range v.Items {
			versionRows = append(versionRows, []any{
				v.VersionNumber, string(v.EntryType), string(v.Status),
				skuCode(it.SkuID), it.Quantity, money(it.UnitPrice), money(it.TotalPrice),
				money(v.EstimatedPrice), money(v.FinalPrice), v.CreatedAt.Format(exportTimeLayout),
			})
		}
	}
	var commRows [][]any
	for _, c := range comms {
		followUp := ""
		if c.FollowUpRequired {
			followUp = "pending"
			if c.FollowUpCompleted {
				followUp = "done"
			}
		}
		commRows = append(commRows, []any{
			c.CommunicationDate.Format(exportTimeLayout), string(c.CommunicationType), string(c.Direction),
			c.Subject, c.ContactPerson, c.Content, followUp,
		})
	}
	var changeRows [][]any
	for _, c := range changes {
		changeRows = append(changeRows, []any{
			c.CreatedAt.Format(exportTimeLayout), skuCode(c.SkuID), string(c.ChangeType),
			optInt(c.OldQuantity), optInt(c.NewQuantity), optMoney(c.OldUnitPrice), optMoney(c.NewUnitPrice),
			string(c.ChangedBy), c.ChangeReason,
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{"Versions", []string{"Version", "Entry Type", "Status", "SKU", "Quantity", "Unit Price", "Total Price", "Estimated Price", "Final Price", "Created"}, versionRows},
		{"Communications", []string{"Date", "Type", "Direction", "Subject", "Contact", "Content", "Follow-up"}, commRows},
		{"SKU Changes", []string{"Date", "SKU", "Change Type", "Old Qty", "New Qty", "Old Price", "New Price", "Changed By", "Reason"}, changeRows},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, fmt.Errorf("naming sheet %s: %w", sh.name, err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh.name, headerStyle, sh.headers, sh.rows); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]any) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 15)
}

func money(d decimal.Decimal) float64 { return d.InexactFloat64() }

func optMoney(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func optInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

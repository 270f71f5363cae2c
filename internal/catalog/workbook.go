package catalog

import (
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	nameHeaders  = []string{"producto", "nombre", "name"}
	priceHeaders = []string{"precio", "price"}
)

// Row is one dish read from a workbook sheet
type Row struct {
	Sheet    string          `json:"sheet"`
	Line     int             `json:"line"`
	Name     string          `json:"name" validate:"required,max=100"`
	Category string          `json:"category" validate:"required,max=50"`
	Price    decimal.Decimal `json:"price" validate:"gte=0,lte=999999.99"`
}

// Workbook holds the rows read from a menu workbook
type Workbook struct {
	Rows          []Row
	Skipped       int
	IgnoredSheets []string
}

// ReadWorkbook reads a menu workbook where every sheet is a category. The
// first row of a sheet must name a product and a price column; sheets
// without them are ignored. Rows without a name or with an unreadable price
// are counted as skipped.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	wb := &Workbook{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
		}

		if len(rows) == 0 {
			wb.IgnoredSheets = append(wb.IgnoredSheets, sheet)
			continue
		}

		nameCol, priceCol := headerColumns(rows[0])
		if nameCol < 0 || priceCol < 0 {
			log.Warn().Str("sheet", sheet).Msg("Sheet ignored, product or price header missing")
			wb.IgnoredSheets = append(wb.IgnoredSheets, sheet)
			continue
		}

		category := strings.TrimSpace(sheet)
		for i, cells := range rows[1:] {
			name := strings.TrimSpace(cell(cells, nameCol))
			if name == "" {
				wb.Skipped++
				continue
			}

			price, err := ParsePrice(cell(cells, priceCol))
			if err != nil {
				log.Debug().Err(err).Str("sheet", sheet).Int("line", i+2).Msg("Row skipped")
				wb.Skipped++
				continue
			}

			wb.Rows = append(wb.Rows, Row{
				Sheet:    sheet,
				Line:     i + 2,
				Name:     name,
				Category: category,
				Price:    price,
			})
		}
	}

	return wb, nil
}

func headerColumns(header []string) (int, int) {
	nameCol, priceCol := -1, -1
	for i, value := range header {
		h := strings.ToLower(strings.TrimSpace(value))
		if nameCol < 0 && slices.Contains(nameHeaders, h) {
			nameCol = i
		}
		if priceCol < 0 && slices.Contains(priceHeaders, h) {
			priceCol = i
		}
	}
	return nameCol, priceCol
}

func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

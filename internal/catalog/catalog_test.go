package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"25.5", "25.5"},
		{" 18 ", "18"},
		{"S/. 12,50", "12.50"},
		{"S/ 6", "6"},
		{"s/.9.90", "9.90"},
		{"s/ 1 200", "1200"},
		{"35 soles", "35"},
		{"-4", "-4"},
		{"12.345", "12.35"},
		{"S/. 7,499", "7.50"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, raw := range []string{"", "  ", "consultar", "1.234.50"} {
		_, err := ParsePrice(raw)
		assert.True(t, errors.Is(err, ErrInvalidPrice), "raw %q", raw)
	}
}

func buildWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Ceviches")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Ceviches", "A1", &[]interface{}{"Producto", "Precio"}))
	require.NoError(t, f.SetSheetRow("Ceviches", "A2", &[]interface{}{"Ceviche clasico", 25.5}))
	require.NoError(t, f.SetSheetRow("Ceviches", "A3", &[]interface{}{"Leche de tigre", "S/. 12,50"}))
	require.NoError(t, f.SetSheetRow("Ceviches", "A4", &[]interface{}{"", 10}))
	require.NoError(t, f.SetSheetRow("Ceviches", "A5", &[]interface{}{"Tiradito", "consultar"}))

	_, err = f.NewSheet("Bebidas")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Bebidas", "A1", &[]interface{}{"NAME", "PRICE"}))
	require.NoError(t, f.SetSheetRow("Bebidas", "A2", &[]interface{}{"  Chicha morada ", "S/ 6"}))

	_, err = f.NewSheet("Notas")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Notas", "A1", &[]interface{}{"Comentario"}))
	require.NoError(t, f.SetSheetRow("Notas", "A2", &[]interface{}{"Abrimos a las 11"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadWorkbook(t *testing.T) {
	wb, err := ReadWorkbook(buildWorkbook(t))
	require.NoError(t, err)

	require.Len(t, wb.Rows, 3)
	assert.Equal(t, 2, wb.Skipped)
	assert.Equal(t, []string{"Sheet1", "Notas"}, wb.IgnoredSheets)

	assert.Equal(t, "Ceviche clasico", wb.Rows[0].Name)
	assert.Equal(t, "Ceviches", wb.Rows[0].Category)
	assert.Equal(t, 2, wb.Rows[0].Line)
	assert.True(t, decimal.RequireFromString("25.5").Equal(wb.Rows[0].Price))

	assert.Equal(t, "Leche de tigre", wb.Rows[1].Name)
	assert.True(t, decimal.RequireFromString("12.50").Equal(wb.Rows[1].Price))

	assert.Equal(t, "Chicha morada", wb.Rows[2].Name)
	assert.Equal(t, "Bebidas", wb.Rows[2].Category)
	assert.True(t, decimal.NewFromInt(6).Equal(wb.Rows[2].Price))
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("producto,precio\nceviche,25\n"))
	assert.Error(t, err)
}

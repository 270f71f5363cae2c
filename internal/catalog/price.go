package catalog

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// ErrInvalidPrice is returned when a cell holds no usable price
var ErrInvalidPrice = errors.New("invalid price")

var currencyMarks = strings.NewReplacer(
	"S/.", "",
	"S/", "",
	"s/.", "",
	"s/", "",
	" ", "",
	",", ".",
)

// ParsePrice reads a price cell rounded to cents. Plain numbers are taken as
// is; anything else loses its currency marks and every character but digits
// and dots.
func ParsePrice(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, errors.Wrap(ErrInvalidPrice, "empty cell")
	}

	if d, err := decimal.NewFromString(value); err == nil {
		return model.RoundPrice(d), nil
	}

	cleaned := currencyMarks.Replace(value)
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "%q", raw)
	}
	return model.RoundPrice(d), nil
}

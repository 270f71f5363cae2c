package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published to the message bus
const (
	EventOrderClosed    = "order.closed"
	EventOrderCancelled = "order.cancelled"
	EventRegisterClosed = "register.closed"
)

// Event is the payload published after a committed state change
type Event struct {
	Type         string          `json:"type"`
	OrderID      string          `json:"order_id,omitempty"`
	TableNumber  *int            `json:"table_number,omitempty"`
	BusinessDate Date            `json:"business_date"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// SaleLine is one dish of an indexed sale
type SaleLine struct {
	Dish     string          `json:"dish"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// SaleDocument is the search representation of a closed order
type SaleDocument struct {
	OrderID      string          `json:"order_id"`
	BusinessDate Date            `json:"business_date"`
	Table        string          `json:"table"`
	IsTakeout    bool            `json:"is_takeout"`
	Dishes       []string        `json:"dishes"`
	Lines        []SaleLine      `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	ClosedAt     time.Time       `json:"closed_at"`
}

// SalesQuery filters indexed sales
type SalesQuery struct {
	Dish  string
	Date  Date
	Limit int
}

// NewSaleDocument builds the search document of an order loaded with its lines
func NewSaleDocument(o *Order) *SaleDocument {
	doc := &SaleDocument{
		OrderID:      o.ID.String(),
		BusinessDate: o.BusinessDate,
		Table:        o.Label(),
		IsTakeout:    o.IsTakeout,
		Total:        o.Total(),
	}
	if o.ClosedAt != nil {
		doc.ClosedAt = *o.ClosedAt
	}
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.Dish == nil {
			continue
		}
		doc.Dishes = append(doc.Dishes, line.Dish.Name)
		doc.Lines = append(doc.Lines, SaleLine{
			Dish:     line.Dish.Name,
			Category: line.Dish.Category,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal(),
		})
	}
	return doc
}

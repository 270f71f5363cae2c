package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TakeoutTableNumber is the number reserved for the virtual takeout table
const TakeoutTableNumber = 0

// Table represents a dining table, or the single virtual takeout table
type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Number    int       `gorm:"not null;uniqueIndex" json:"number"`
	IsTakeout bool      `gorm:"not null" json:"is_takeout"`
	Occupied  bool      `gorm:"not null" json:"occupied"`
}

// Label returns the name printed on tickets and screens
func (t *Table) Label() string {
	if t.IsTakeout {
		return "PARA LLEVAR"
	}
	return fmt.Sprintf("Mesa %d", t.Number)
}

// PriceScale is the number of decimal places stored for a dish price
const PriceScale = 2

// RoundPrice brings a price to the stored scale
func RoundPrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(PriceScale)
}

// Dish represents a menu entry. Prices fit decimal(8,2), at most 999999.99.
type Dish struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Name      string          `gorm:"size:100;not null;uniqueIndex:idx_dishes_name_category" json:"name"`
	Category  string          `gorm:"size:50;not null;uniqueIndex:idx_dishes_name_category" json:"category"`
	Price     decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	Active    bool            `gorm:"not null" json:"active"`
}

// OrderState defines the lifecycle state of an order
type OrderState string

const (
	// OrderStateOpen is an order still taking line items
	OrderStateOpen OrderState = "open"
	// OrderStateClosed is a billed order, counted in the register
	OrderStateClosed OrderState = "closed"
	// OrderStateCancelled is a discarded order, excluded from the register
	OrderStateCancelled OrderState = "cancelled"
)

// IsTerminal reports whether no transition leaves the state
func (s OrderState) IsTerminal() bool {
	return s == OrderStateClosed || s == OrderStateCancelled
}

// Order represents an order placed against a table or for takeout
type Order struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	TableID      *uint      `gorm:"uniqueIndex:idx_orders_open_table,where:state = 'open'" json:"table_id"`
	Table        *Table     `gorm:"foreignKey:TableID" json:"table,omitempty"`
	BusinessDate Date       `gorm:"type:varchar(10);not null;index" json:"business_date"`
	State        OrderState `gorm:"type:varchar(16);not null;index" json:"state"`
	IsTakeout    bool       `gorm:"not null" json:"is_takeout"`
	ClosedAt     *time.Time `json:"closed_at"`
	Lines        []LineItem `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// IsOpen reports whether the order still accepts line changes
func (o *Order) IsOpen() bool {
	return o.State == OrderStateOpen
}

// Total sums the subtotals of the loaded line items at current dish prices
func (o *Order) Total() decimal.Decimal {
	return SumLines(o.Lines)
}

// Label returns the name printed on tickets and screens
func (o *Order) Label() string {
	if o.IsTakeout {
		return "PARA LLEVAR"
	}
	if o.Table != nil {
		return o.Table.Label()
	}
	return "Pedido " + o.ID.String()
}

// FulfillmentState defines the kitchen state of a line item
type FulfillmentState string

const (
	// FulfillmentPending is a line the kitchen has not served yet
	FulfillmentPending FulfillmentState = "pending"
	// FulfillmentServed is a line delivered to the customer
	FulfillmentServed FulfillmentState = "served"
)

// LineItem represents one dish on an order
type LineItem struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	OrderID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_line_items_order_dish" json:"order_id"`
	DishID           uint             `gorm:"not null;uniqueIndex:idx_line_items_order_dish" json:"dish_id"`
	Dish             *Dish            `gorm:"foreignKey:DishID" json:"dish,omitempty"`
	Quantity         int              `gorm:"not null" json:"quantity"`
	FulfillmentState FulfillmentState `gorm:"type:varchar(16);not null" json:"fulfillment_state"`
}

// Subtotal is quantity times the dish's current price. It is zero when the
// dish was not loaded.
func (l *LineItem) Subtotal() decimal.Decimal {
	if l.Dish == nil {
		return decimal.Zero
	}
	return l.Dish.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLines adds up the subtotals of the given lines
func SumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Subtotal())
	}
	return total
}

// Register represents the cash register ledger entry of one business day
type Register struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	BusinessDate       Date            `gorm:"type:varchar(10);not null;uniqueIndex" json:"business_date"`
	OpeningFloat       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"opening_float"`
	ComputedTotalSales decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"computed_total_sales"`
	ClosingFloat       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"closing_float"`
	IsOpen             bool            `gorm:"not null;index" json:"is_open"`
	OpenedAt           time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt           *time.Time      `json:"closed_at"`
}

// All returns every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Table{},
		&Dish{},
		&Order{},
		&LineItem{},
		&Register{},
	}
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

// TicketKind selects the printed layout of a ticket
type TicketKind string

const (
	// TicketCustomer is the bill handed to the customer
	TicketCustomer TicketKind = "customer"
	// TicketKitchen is the comanda sent to the kitchen, without prices
	TicketKitchen TicketKind = "kitchen"
)

// ParseTicketKind validates a ticket kind
func ParseTicketKind(raw string) (TicketKind, error) {
	switch kind := TicketKind(raw); kind {
	case TicketCustomer, TicketKitchen:
		return kind, nil
	}
	return "", errors.Wrapf(ErrValidation, "unknown ticket kind %q", raw)
}

// TicketLine is one printed line of a ticket
type TicketLine struct {
	Dish     string           `json:"dish"`
	Category string           `json:"category"`
	Quantity int              `json:"quantity"`
	Served   bool             `json:"served"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
}

// Ticket is the printable payload of an order
type Ticket struct {
	Kind       TicketKind       `json:"kind"`
	Restaurant string           `json:"restaurant"`
	OrderID    uuid.UUID        `json:"order_id"`
	Label      string           `json:"label"`
	State      string           `json:"state"`
	PrintedAt  time.Time        `json:"printed_at"`
	Lines      []TicketLine     `json:"lines"`
	Total      *decimal.Decimal `json:"total,omitempty"`
}

// Ticket builds the printable ticket of an order
func (s *orderService) Ticket(ctx context.Context, id uuid.UUID, kind TicketKind) (*Ticket, error) {
	if _, err := ParseTicketKind(string(kind)); err != nil {
		return nil, err
	}

	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order %s", id)
	}

	ticket := &Ticket{
		Kind:       kind,
		Restaurant: s.env.Restaurant,
		OrderID:    order.ID,
		Label:      order.Label(),
		State:      string(order.State),
		PrintedAt:  s.env.now(),
		Lines:      make([]TicketLine, 0, len(order.Lines)),
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		tl := TicketLine{
			Quantity: line.Quantity,
			Served:   line.FulfillmentState == model.FulfillmentServed,
		}
		if line.Dish != nil {
			tl.Dish = line.Dish.Name
			tl.Category = line.Dish.Category
		}
		if kind == TicketCustomer && line.Dish != nil {
			price := line.Dish.Price
			subtotal := line.Subtotal()
			tl.Price = &price
			tl.Subtotal = &subtotal
		}
		ticket.Lines = append(ticket.Lines, tl)
	}
	if kind == TicketCustomer {
		total := order.Total()
		ticket.Total = &total
	}
	return ticket, nil
}

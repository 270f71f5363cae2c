package service

import (
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/repository"
)

// Services groups every service of the point of sale
type Services struct {
	Tables    TableService
	Orders    OrderService
	Registers RegisterService
	Menu      MenuService
	Reports   ReportService
}

// New creates every service on store sharing env
func New(store *repository.Store, env *Env) *Services {
	env = env.withDefaults()
	return &Services{
		Tables:    NewTableService(store, env),
		Orders:    NewOrderService(store, env),
		Registers: NewRegisterService(store, env),
		Menu:      NewMenuService(store, env),
		Reports:   NewReportService(store, env),
	}
}

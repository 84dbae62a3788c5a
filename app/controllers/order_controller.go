package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// Index handles GET /orders, optionally narrowed by ?status=0|1.
func (oc *OrderController) Index(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		st := models.OrderStatus(n)
		if err != nil || !st.Valid() {
			c.ValidationError(map[string]string{"status": "Select a valid choice."})
			return
		}
		status = &st
	}

	orders, err := oc.service.List(c.Context(), p, status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Order, orders))
}

// Store handles POST /orders: the caller's cart becomes an order.
func (oc *OrderController) Store(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in services.PlaceOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.service.Place(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(resources.Order(order))
}

func (oc *OrderController) Show(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := id(c)
	if !ok {
		return
	}
	order, err := oc.service.Get(c.Context(), p, orderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.Order(order))
}

// Update serves both PUT and PATCH.
func (oc *OrderController) Update(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := id(c)
	if !ok {
		return
	}
	var in services.UpdateOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.service.Update(c.Context(), p, orderID, in, c.Method() == http.MethodPatch)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.Order(order))
}

func (oc *OrderController) Destroy(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := id(c)
	if !ok {
		return
	}
	if err := oc.service.Delete(c.Context(), p, orderID); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

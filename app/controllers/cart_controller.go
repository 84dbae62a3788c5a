package controllers

import (
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

func (cc *CartController) Index(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	lines, err := cc.service.Lines(c.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.CartLine, lines))
}

func (cc *CartController) Store(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in services.AddToCartInput
	if !c.BindJSON(&in) {
		return
	}
	line, err := cc.service.Add(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(resources.CartLine(line))
}

func (cc *CartController) Clear(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := cc.service.Clear(c.Context(), p); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

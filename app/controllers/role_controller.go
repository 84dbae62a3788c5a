package controllers

import (
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

type RoleController struct {
	service *services.RoleService
}

func NewRoleController(service *services.RoleService) *RoleController {
	return &RoleController{service: service}
}

func (rc *RoleController) Groups(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	groups, err := rc.service.Groups(c.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Group, groups))
}

// role reads the {role} URL parameter ("manager" or "delivery-crew").
func role(c *ctx.Context) (rbac.Role, bool) {
	r, ok := rbac.ParseRole(c.Param("role"))
	if !ok {
		c.NotFound("group not found")
	}
	return r, ok
}

func (rc *RoleController) Members(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	r, ok := role(c)
	if !ok {
		return
	}
	users, err := rc.service.Members(c.Context(), p, r)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.User, users))
}

func (rc *RoleController) Add(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	r, ok := role(c)
	if !ok {
		return
	}
	var in services.MembershipInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := rc.service.Add(c.Context(), p, r, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message(http.StatusCreated, fmt.Sprintf("user %s added to the '%s' group", user.Username, r.GroupName()))
}

func (rc *RoleController) Remove(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	r, ok := role(c)
	if !ok {
		return
	}
	var in services.MembershipInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := rc.service.Remove(c.Context(), p, r, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message(http.StatusOK, fmt.Sprintf("user %s removed from the '%s' group", user.Username, r.GroupName()))
}

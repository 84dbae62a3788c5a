package controllers

import (
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /auth/users.
func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := ac.service.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(resources.User(user))
}

// Login handles POST /auth/token/login.
func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	token, err := ac.service.Login(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.Token(token))
}

// Me handles GET /auth/users/me.
func (ac *AuthController) Me(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := ac.service.Me(c.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.User(user))
}

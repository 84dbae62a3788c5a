// Package controllers adapts HTTP requests to the services. Handlers are
// written against ctx.Context and mounted with ctx.Wrap.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

// fail writes the envelope for err:
//
//	*services.ValidationError   400 with field errors
//	services.ErrForbidden       403 "Forbidden"
//	services.ErrNotFound        404
//	*services.BusinessRuleError 400 with the rule's message
//	services.ErrConflict        409
//	anything else               500, logged
func fail(c *ctx.Context, err error) {
	var (
		verr *services.ValidationError
		rule *services.BusinessRuleError
	)
	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden()
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.As(err, &rule):
		c.Error(http.StatusBadRequest, rule.Message)
	case errors.Is(err, services.ErrConflict):
		c.Error(http.StatusConflict, "The request conflicted with a concurrent change; try again.")
	default:
		logger.WithCtx(c.Context()).Error("request failed",
			"method", c.Method(),
			"path", c.R.URL.Path,
			"error", err,
		)
		c.Error(http.StatusInternalServerError, "Internal Server Error")
	}
}

// principal returns the authenticated caller, answering 401 when there is
// none.
func principal(c *ctx.Context) (rbac.Principal, bool) {
	p, ok := rbac.FromCtx(c.Context())
	if !ok {
		c.Unauthorized("Authentication credentials were not provided.")
	}
	return p, ok
}

// id reads the {id} URL parameter, answering 404 when it is not a positive
// integer.
func id(c *ctx.Context) (uint, bool) {
	v, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
		return 0, false
	}
	return v, true
}

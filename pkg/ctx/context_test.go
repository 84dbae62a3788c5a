package ctx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	appctx "github.com/shashiranjanraj/littlelemon/pkg/ctx"
)

func TestWrapAndSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]any{"ok": true})
	})(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":{"ok":true}`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestSetAndGet(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Set("user_id", uint(42))
		v, ok := c.Get("user_id")
		if !ok || v.(uint) != 42 {
			t.Errorf("expected 42, got %v", v)
		}
		c.NoContent()
	})(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestParamUint(t *testing.T) {
	r := chi.NewRouter()
	var got uint
	var ok bool
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		got, ok = c.ParamUint("id")
		c.NoContent()
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/17", nil))
	if !ok || got != 17 {
		t.Errorf("expected 17, got %d (ok=%v)", got, ok)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	if ok {
		t.Error("expected non-numeric id to be rejected")
	}
}

func TestBindJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"username":"john","email":"john@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Username string `json:"username" validate:"required"`
			Email    string `json:"email"    validate:"required,email"`
		}
		if !c.BindJSON(&input) {
			t.Error("expected BindJSON to succeed")
			return
		}
		if input.Username != "john" {
			t.Errorf("expected john, got %s", input.Username)
		}
		c.Success(nil)
	})(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("unexpected failure: %s", rec.Body.String())
	}
}

func TestBindJSONInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":""}`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Username string `json:"username" validate:"required"`
		}
		if c.BindJSON(&input) {
			t.Error("expected BindJSON to fail")
		}
	})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"The username field is required."`) {
		t.Errorf("expected field error in body: %s", rec.Body.String())
	}
}

func TestBindJSONMalformed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Username string `json:"username"`
		}
		if c.BindJSON(&input) {
			t.Error("expected BindJSON to fail")
		}
	})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPageBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=0&perpage=1000", nil)
	appctx.Wrap(func(c *appctx.Context) {
		p := c.Page()
		if p.Page != 1 {
			t.Errorf("expected page 1, got %d", p.Page)
		}
		if p.PerPage != 100 {
			t.Errorf("expected perpage capped at 100, got %d", p.PerPage)
		}
	})(httptest.NewRecorder(), req)
}

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	appctx.Wrap(func(c *appctx.Context) {
		c.NotFound("Resource missing")
	})(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

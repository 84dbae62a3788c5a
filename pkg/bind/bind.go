// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/validate"
)

// JSON decodes r.Body as JSON into dest and runs validation.
// The body is capped at MAX_BODY_BYTES (default 1 MB).
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
// An empty body decodes as {} so that optional-only payloads validate normally.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

		dec := json.NewDecoder(r.Body)
		if err = dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
			}
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

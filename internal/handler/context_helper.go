package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/member-console/pkg/errors"
	"github.com/noah-isme/member-console/pkg/response"
)

var (
	validate     = validator.New()
	queryDecoder = form.NewDecoder()
)

// bindJSON decodes and validates a request body, writing a 400 envelope on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	if err := validate.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindQuery decodes the query string into dest. Malformed values are configuration errors.
func bindQuery(c *gin.Context, dest interface{}) error {
	if err := queryDecoder.Decode(dest, c.Request.URL.Query()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "malformed query parameters")
	}
	return nil
}

// extraQuery collects single-valued query parameters not named in known.
func extraQuery(c *gin.Context, known map[string]struct{}) map[string]string {
	out := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if _, skip := known[key]; skip || len(values) == 0 {
			continue
		}
		if v := strings.TrimSpace(values[len(values)-1]); v != "" {
			out[key] = v
		}
	}
	return out
}

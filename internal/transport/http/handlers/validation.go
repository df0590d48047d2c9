package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

var errInvalidID = errors.New("invalid id")

// NewValidator returns a validator that knows the httpmethod tag and reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return usecase.IsAllowedMethod(fl.Field().String())
	})
	return v
}

// bindJSON decodes and validates the request body, responding 400 on failure.
func bindJSON(c *gin.Context, v *validator.Validate, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request body"))
		return false
	}

	if err := v.Struct(dst); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationMessage(err)))
		return false
	}

	return true
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "invalid request body"
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "httpmethod":
			messages = append(messages, fmt.Sprintf("%s must be an HTTP method", fieldErr.Field()))
		case "startswith":
			messages = append(messages, fmt.Sprintf("%s must start with %s", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

// idParam parses a positive int64 path parameter, responding 400 on failure.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondWithMappedError(c, errInvalidID, []ErrorCase{
			{Err: errInvalidID, Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid %s", name)},
		}, http.StatusBadRequest, "invalid request")
		return 0, false
	}
	return id, true
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

const internalErrorMessage = "internal error"

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases, then against the typed
// domain errors, and falls back to a generic response. Fallback errors are attached to the gin
// context so the access log records them; their text never reaches the client.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	var (
		notFound      *domain.NotFoundError
		alreadyExists *domain.AlreadyExistsError
		validation    *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, notFound.Message))
	case errors.As(err, &alreadyExists):
		c.JSON(http.StatusConflict, NewErrorResponse(c, alreadyExists.Message))
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Message))
	default:
		_ = c.Error(err)
		c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
	}
}

func respondError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, nil, http.StatusInternalServerError, internalErrorMessage)
}

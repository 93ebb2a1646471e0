package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"specflow/internal/domain"
)

// bindingResponse responde 400 cuando el cuerpo no decodifica o falla una regla de binding.
func bindingResponse(c *gin.Context, key string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{key: "invalid request"})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "email":
			fields[strings.ToLower(fe.Field())] = "Invalid email address"
		case "required":
			fields[strings.ToLower(fe.Field())] = fe.Field() + " is required"
		default:
			fields[strings.ToLower(fe.Field())] = fe.Field() + " is invalid"
		}
	}
	validationResponse(c, key, &domain.ValidationError{Fields: fields})
}

// validationResponse responde 400 con el primer mensaje y el detalle por campo.
func validationResponse(c *gin.Context, key string, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{key: verr.Message(), "fields": verr.Fields})
	return true
}

// configurationResponse responde 503 cuando falta un ajuste del servidor.
func configurationResponse(c *gin.Context, key string, err error) bool {
	if !errors.Is(err, domain.ErrConfiguration) {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{key: "Service is not configured"})
	return true
}

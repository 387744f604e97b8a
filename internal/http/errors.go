package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"financas/internal/domain"
	"financas/internal/service"
)

const (
	msgUnauthorized        = "Não autorizado"
	msgSpaceRequired       = "ID do espaço é obrigatório"
	msgInvalidInput        = "Dados inválidos"
	msgForbidden           = "Acesso negado"
	msgNotFound            = "Registro não encontrado"
	msgConflict            = "Registro já existe"
	msgUserExists          = "Usuário já existe"
	msgInvalidCredentials  = "Credenciais inválidas"
	msgInvalidRegistration = "Senha de cadastro inválida"
	msgExportNotReady      = "Exportação ainda não concluída"
	msgInternal            = "Erro interno do servidor"
)

// errInvalidInput marks malformed request bodies and parameters.
var errInvalidInput = errors.New("invalid input")

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

// respondError is the error boundary every handler reports through. Known
// errors map to their status; anything else is logged with the request
// context and surfaced as a generic 500.
func (h *Handler) respondError(c *gin.Context, scope domain.Scope, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorBody(validationErr.Msg))
	case errors.Is(err, errInvalidInput):
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidInput))
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody(msgForbidden))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody(msgNotFound))
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, errorBody(msgUserExists))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorBody(msgConflict))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody(msgInvalidCredentials))
	case errors.Is(err, service.ErrInvalidRegistrationPassword):
		c.JSON(http.StatusForbidden, errorBody(msgInvalidRegistration))
	default:
		h.requestEntry(c, scope).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorBody(msgInternal))
	}
}

func (h *Handler) requestEntry(c *gin.Context, scope domain.Scope) *logrus.Entry {
	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}
	if scope.UserID != "" {
		fields["user"] = scope.UserID
	}
	if scope.SpaceID != "" {
		fields["space"] = scope.SpaceID
	}
	return h.logger.WithFields(fields)
}

func (h *Handler) recoverPanic(c *gin.Context, recovered any) {
	h.requestEntry(c, domain.Scope{}).WithField("panic", recovered).Error("panic while handling request")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(msgInternal))
}

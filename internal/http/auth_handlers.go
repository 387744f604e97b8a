package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"financas/internal/auth"
	"financas/internal/domain"
	"financas/internal/service"
)

type registerRequest struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Password       string `json:"password"`
	RegisterSecret string `json:"registerSecret"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.Scope{}, errInvalidInput)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Name, req.Password, req.RegisterSecret)
	if err != nil {
		h.respondError(c, domain.Scope{}, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.Scope{}, errInvalidInput)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, domain.Scope{}, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, domain.Scope{UserID: user.ID}, err)
		return
	}

	h.setSessionCookie(c, token, int(h.tokens.TTL().Seconds()))
	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: formatTime(expiresAt),
		User:      userToResponse(*user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// currentSession answers with the signed-in user or a JSON null.
func (h *Handler) currentSession(c *gin.Context) {
	session, ok := h.sessions.Resolve(c.Request)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		h.respondError(c, domain.Scope{UserID: session.UserID}, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(*user)})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.opts.CookieSecure, true)
}

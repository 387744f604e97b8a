package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"financas/internal/auth"
	"financas/internal/domain"
)

type createSpaceRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Email string            `json:"email"`
	Role  domain.MemberRole `json:"role"`
}

func (h *Handler) listSpaces(c *gin.Context, session auth.Session) {
	scope := domain.Scope{UserID: session.UserID}
	spaces, err := h.spaces.ListSpaces(c.Request.Context(), session.UserID)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(spaces, spaceToResponse))
}

func (h *Handler) createSpace(c *gin.Context, session auth.Session) {
	scope := domain.Scope{UserID: session.UserID}
	var req createSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, scope, errInvalidInput)
		return
	}

	space, err := h.spaces.CreateSpace(c.Request.Context(), session.UserID, req.Name)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	space.Role = domain.MemberRoleOwner
	c.JSON(http.StatusCreated, spaceToResponse(*space))
}

func (h *Handler) listMembers(c *gin.Context, scope domain.Scope) {
	members, err := h.spaces.Members(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(members, memberToResponse))
}

func (h *Handler) addMember(c *gin.Context, scope domain.Scope) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, scope, errInvalidInput)
		return
	}

	member, err := h.spaces.AddMember(c.Request.Context(), scope, req.Email, req.Role)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusCreated, memberToResponse(*member))
}

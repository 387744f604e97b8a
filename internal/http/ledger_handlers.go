package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"financas/internal/domain"
	"financas/internal/service"
)

type categoryRequest struct {
	Name  string           `json:"name"`
	Kind  domain.EntryKind `json:"kind"`
	Color string           `json:"color"`
}

type tagRequest struct {
	Name string `json:"name"`
}

type reserveRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Goal        *decimal.Decimal `json:"goal"`
}

type transactionRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Kind        domain.EntryKind `json:"kind"`
	OccurredAt  string           `json:"occurredAt"`
	CategoryID  *string          `json:"categoryId"`
	ReserveID   *string          `json:"reserveId"`
	TagIDs      []string         `json:"tagIds"`
}

func (r transactionRequest) toInput() (service.TransactionInput, error) {
	in := service.TransactionInput{
		Description: r.Description,
		Kind:        r.Kind,
		CategoryID:  r.CategoryID,
		ReserveID:   r.ReserveID,
		TagIDs:      r.TagIDs,
	}
	if r.Amount != nil {
		in.Amount = *r.Amount
	}
	if strings.TrimSpace(r.OccurredAt) != "" {
		occurredAt, err := parseDate(r.OccurredAt)
		if err != nil {
			return service.TransactionInput{}, service.NewValidationError("Data inválida")
		}
		in.OccurredAt = occurredAt
	}
	return in, nil
}

func (h *Handler) listCategories(c *gin.Context, scope domain.Scope) {
	categories, err := h.ledger.Categories(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(categories, categoryToResponse))
}

func (h *Handler) createCategory(c *gin.Context, scope domain.Scope) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, scope, errInvalidInput)
		return
	}

	category, err := h.ledger.CreateCategory(c.Request.Context(), scope, service.CategoryInput{
		Name:  req.Name,
		Kind:  req.Kind,
		Color: req.Color,
	})
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusCreated, categoryToResponse(*category))
}

func (h *Handler) deleteCategory(c *gin.Context, scope domain.Scope) {
	if err := h.ledger.DeleteCategory(c.Request.Context(), scope, c.Param("id")); err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listTags(c *gin.Context, scope domain.Scope) {
	tags, err := h.ledger.Tags(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(tags, tagToResponse))
}

func (h *Handler) createTag(c *gin.Context, scope domain.Scope) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, scope, errInvalidInput)
		return
	}

	tag, err := h.ledger.CreateTag(c.Request.Context(), scope, req.Name)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusCreated, tagToResponse(*tag))
}

func (h *Handler) deleteTag(c *gin.Context, scope domain.Scope) {
	if err := h.ledger.DeleteTag(c.Request.Context(), scope, c.Param("id")); err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listReserves(c *gin.Context, scope domain.Scope) {
	reserves, err := h.ledger.Reserves(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(reserves, reserveToResponse))
}

func (h *Handler) createReserve(c *gin.Context, scope domain.Scope) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, scope, errInvalidInput)
		return
	}

	in := service.ReserveInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Goal != nil {
		in.Goal = *req.Goal
	}
	reserve, err := h.ledger.CreateReserve(c.Request.Context(), scope, in)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusCreated, reserveToResponse(*reserve))
}

func (h *Handler) deleteReserve(c *gin.Context, scope domain.Scope) {
	if err := h.ledger.DeleteReserve(c.Request.Context(), scope, c.Param("id")); err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) overview(c *gin.Context, scope domain.Scope) {
	overview, err := h.ledger.Overview(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, overviewToResponse(*overview))
}

func (h *Handler) listTransactions(c *gin.Context, scope domain.Scope) {
	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	txs, err := h.ledger.Transactions(c.Request.Context(), scope, filter)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(txs, transactionToResponse))
}

func (h *Handler) getTransaction(c *gin.Context, scope domain.Scope) {
	tx, err := h.ledger.Transaction(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(*tx))
}

func (h *Handler) createTransaction(c *gin.Context, scope domain.Scope) {
	in, err := bindTransaction(c)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	tx, err := h.ledger.CreateTransaction(c.Request.Context(), scope, in)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusCreated, transactionToResponse(*tx))
}

func (h *Handler) updateTransaction(c *gin.Context, scope domain.Scope) {
	in, err := bindTransaction(c)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	tx, err := h.ledger.UpdateTransaction(c.Request.Context(), scope, c.Param("id"), in)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(*tx))
}

func (h *Handler) deleteTransaction(c *gin.Context, scope domain.Scope) {
	if err := h.ledger.DeleteTransaction(c.Request.Context(), scope, c.Param("id")); err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindTransaction(c *gin.Context) (service.TransactionInput, error) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.TransactionInput{}, errInvalidInput
	}
	return req.toInput()
}

func transactionFilterFromQuery(c *gin.Context) (domain.TransactionFilter, error) {
	filter := domain.TransactionFilter{
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
		TagID:      strings.TrimSpace(c.Query("tagId")),
	}

	for _, p := range []struct {
		name   string
		target **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := c.Query(p.name)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			return domain.TransactionFilter{}, err
		}
		*p.target = &t
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return domain.TransactionFilter{}, fmt.Errorf("%w: limit %q", errInvalidInput, raw)
		}
		filter.Limit = limit
	}
	return filter, nil
}

package http

import (
	"fmt"
	"strings"
	"time"

	"financas/internal/domain"
	"financas/internal/service"
)

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SpaceResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Role      domain.MemberRole `json:"role,omitempty"`
	CreatedAt string            `json:"createdAt"`
}

type MemberResponse struct {
	UserID string            `json:"userId"`
	Email  string            `json:"email"`
	Name   string            `json:"name"`
	Role   domain.MemberRole `json:"role"`
}

type CategoryResponse struct {
	ID        string           `json:"id"`
	SpaceID   string           `json:"spaceId"`
	Name      string           `json:"name"`
	Kind      domain.EntryKind `json:"kind"`
	Color     string           `json:"color,omitempty"`
	CreatedAt string           `json:"createdAt"`
}

type TagResponse struct {
	ID        string `json:"id"`
	SpaceID   string `json:"spaceId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type ReserveResponse struct {
	ID          string `json:"id"`
	SpaceID     string `json:"spaceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Goal        string `json:"goal"`
	CreatedAt   string `json:"createdAt"`
}

type TransactionResponse struct {
	ID          string           `json:"id"`
	SpaceID     string           `json:"spaceId"`
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	Kind        domain.EntryKind `json:"kind"`
	OccurredAt  string           `json:"occurredAt"`
	CategoryID  *string          `json:"categoryId"`
	ReserveID   *string          `json:"reserveId"`
	TagIDs      []string         `json:"tagIds"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

type OverviewResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Tags       []TagResponse      `json:"tags"`
	Reserves   []ReserveResponse  `json:"reserves"`
}

type ExportResponse struct {
	ID           string              `json:"id"`
	SpaceID      string              `json:"spaceId"`
	Status       domain.ExportStatus `json:"status"`
	RowCount     int                 `json:"rowCount"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
	CompletedAt  *string             `json:"completedAt,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func spaceToResponse(s domain.Space) SpaceResponse {
	return SpaceResponse{
		ID:        s.ID,
		Name:      s.Name,
		Role:      s.Role,
		CreatedAt: formatTime(s.CreatedAt),
	}
}

func memberToResponse(m domain.Member) MemberResponse {
	return MemberResponse{
		UserID: m.UserID,
		Email:  m.Email,
		Name:   m.Name,
		Role:   m.Role,
	}
}

func categoryToResponse(c domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		SpaceID:   c.SpaceID,
		Name:      c.Name,
		Kind:      c.Kind,
		Color:     c.Color,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func tagToResponse(t domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		SpaceID:   t.SpaceID,
		Name:      t.Name,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func reserveToResponse(r domain.Reserve) ReserveResponse {
	return ReserveResponse{
		ID:          r.ID,
		SpaceID:     r.SpaceID,
		Name:        r.Name,
		Description: r.Description,
		Goal:        r.Goal.StringFixed(2),
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func transactionToResponse(t domain.Transaction) TransactionResponse {
	tagIDs := t.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return TransactionResponse{
		ID:          t.ID,
		SpaceID:     t.SpaceID,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Kind:        t.Kind,
		OccurredAt:  formatTime(t.OccurredAt),
		CategoryID:  t.CategoryID,
		ReserveID:   t.ReserveID,
		TagIDs:      tagIDs,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func overviewToResponse(o service.Overview) OverviewResponse {
	return OverviewResponse{
		Categories: mapSlice(o.Categories, categoryToResponse),
		Tags:       mapSlice(o.Tags, tagToResponse),
		Reserves:   mapSlice(o.Reserves, reserveToResponse),
	}
}

func exportToResponse(e domain.Export) ExportResponse {
	resp := ExportResponse{
		ID:           e.ID,
		SpaceID:      e.SpaceID,
		Status:       e.Status,
		RowCount:     e.RowCount,
		ErrorMessage: e.ErrorMessage,
		CreatedAt:    formatTime(e.CreatedAt),
		UpdatedAt:    formatTime(e.UpdatedAt),
	}
	if e.CompletedAt != nil {
		v := formatTime(*e.CompletedAt)
		resp.CompletedAt = &v
	}
	return resp
}

// mapSlice never returns nil so empty lists encode as [].
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i := range in {
		out[i] = fn(in[i])
	}
	return out
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", errInvalidInput, value)
	}
	return t.UTC(), nil
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adrata/crmops/internal/domain/model"
)

// RecordDependencies defines the interface for record writes.
type RecordDependencies interface {
	UpsertPerson(ctx context.Context, p model.Person) error
	UpsertCompany(ctx context.Context, c model.Company) error
}

// PeopleHandler handles person and company record writes.
type PeopleHandler struct {
	deps RecordDependencies
}

// NewPeopleHandler creates a new record handler.
func NewPeopleHandler(deps RecordDependencies) *PeopleHandler {
	return &PeopleHandler{deps: deps}
}

// personRequest mirrors the OpenAPI schema for POST /people.
type personRequest struct {
	ID                  string   `json:"id"`
	WorkspaceID         string   `json:"workspace_id"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	JobTitle            *string  `json:"job_title"`
	Email               *string  `json:"email"`
	Phone               *string  `json:"phone"`
	CompanyID           *string  `json:"company_id"`
	InBuyerGroup        bool     `json:"in_buyer_group"`
	InfluenceScore      *float64 `json:"influence_score"`
	EngagementScore     *float64 `json:"engagement_score"`
	DataQualityScore    *float64 `json:"data_quality_score"`
	LinkedinConnections *int     `json:"linkedin_connections"`
	LinkedinFollowers   *int     `json:"linkedin_followers"`
}

func (p personRequest) validate() error {
	if strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "" {
		return errors.New("missing name")
	}
	return nil
}

// companyRequest mirrors the OpenAPI schema for POST /companies.
type companyRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Website  *string `json:"website"`
	Industry *string `json:"industry"`
	Size     *string `json:"size"`
}

func (c companyRequest) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

// HandlePostPerson handles POST /people requests.
func (h *PeopleHandler) HandlePostPerson(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_person"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	person := model.Person{
		ID:                  req.ID,
		WorkspaceID:         req.WorkspaceID,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		JobTitle:            req.JobTitle,
		Email:               req.Email,
		Phone:               req.Phone,
		CompanyID:           req.CompanyID,
		InBuyerGroup:        req.InBuyerGroup,
		InfluenceScore:      req.InfluenceScore,
		EngagementScore:     req.EngagementScore,
		DataQualityScore:    req.DataQualityScore,
		LinkedinConnections: req.LinkedinConnections,
		LinkedinFollowers:   req.LinkedinFollowers,
	}
	if err := h.deps.UpsertPerson(r.Context(), person); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "stored"})
}

// HandlePostCompany handles POST /companies requests.
func (h *PeopleHandler) HandlePostCompany(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_company"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	company := model.Company{
		ID:       req.ID,
		Name:     req.Name,
		Website:  req.Website,
		Industry: req.Industry,
		Size:     req.Size,
	}
	if err := h.deps.UpsertCompany(r.Context(), company); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "stored"})
}

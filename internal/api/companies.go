package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ravnco/userdemo/internal/models"
	"github.com/ravnco/userdemo/internal/store"
)

type companyRequest struct {
	Name      string `json:"name"`
	CountryID int64  `json:"countryId"`
}

func (r *Router) handleListCompanies(w http.ResponseWriter, req *http.Request) {
	companies, err := r.store.ListCompanies()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list companies")
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}

	dtos := make([]models.CompanyDTO, 0, len(companies))
	for _, c := range companies {
		dto, err := r.toCompanyDTO(c)
		if err != nil {
			log.Error().Err(err).Int64("companyId", c.ID).Msg("Failed to expand company")
			writeError(w, http.StatusInternalServerError, "failed to expand company")
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (r *Router) handleGetCompany(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	company, err := r.store.GetCompany(id)
	if errors.Is(err, store.ErrCompanyNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("companyId", id).Msg("Failed to get company")
		writeError(w, http.StatusInternalServerError, "failed to get company")
		return
	}

	dto, err := r.toCompanyDTO(company)
	if err != nil {
		log.Error().Err(err).Int64("companyId", id).Msg("Failed to expand company")
		writeError(w, http.StatusInternalServerError, "failed to expand company")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (r *Router) handleCreateCompany(w http.ResponseWriter, req *http.Request) {
	var body companyRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if body.CountryID <= 0 {
		writeError(w, http.StatusBadRequest, "countryId is required")
		return
	}

	company, err := r.store.CreateCompany(strings.TrimSpace(body.Name), body.CountryID)
	if errors.Is(err, store.ErrCountryNotFound) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to create company")
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	dto, err := r.toCompanyDTO(company)
	if err != nil {
		log.Error().Err(err).Int64("companyId", company.ID).Msg("Failed to expand company")
		writeError(w, http.StatusInternalServerError, "failed to expand company")
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (r *Router) handleDeleteCompany(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	err := r.store.DeleteCompany(id)
	if errors.Is(err, store.ErrCompanyNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if errors.Is(err, store.ErrInUse) {
		writeError(w, http.StatusConflict, "company still has employees")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("companyId", id).Msg("Failed to delete company")
		writeError(w, http.StatusInternalServerError, "failed to delete company")
		return
	}

	r.directory.InvalidateCompany(id)
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListEmployees(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	if _, err := r.store.GetCompany(id); errors.Is(err, store.ErrCompanyNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	} else if err != nil {
		log.Error().Err(err).Int64("companyId", id).Msg("Failed to get company")
		writeError(w, http.StatusInternalServerError, "failed to get company")
		return
	}

	users, err := r.store.ListUsersByCompany(id)
	if err != nil {
		log.Error().Err(err).Int64("companyId", id).Msg("Failed to list employees")
		writeError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	dtos := make([]models.UserDTO, 0, len(users))
	for _, u := range users {
		dto, err := r.toUserDTO(u)
		if err != nil {
			log.Error().Err(err).Int64("userId", u.ID).Msg("Failed to expand user")
			writeError(w, http.StatusInternalServerError, "failed to expand user")
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

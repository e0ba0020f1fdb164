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

type userRequest struct {
	Name      string `json:"name"`
	CountryID int64  `json:"countryId"`
	CompanyID int64  `json:"companyId"`
}

func (ur *userRequest) validate() string {
	if strings.TrimSpace(ur.Name) == "" {
		return "name is required"
	}
	if ur.CountryID <= 0 {
		return "countryId is required"
	}
	if ur.CompanyID <= 0 {
		return "companyId is required"
	}
	return ""
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.store.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		writeError(w, http.StatusInternalServerError, "failed to list users")
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

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	user, err := r.store.GetUser(id)
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("userId", id).Msg("Failed to get user")
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	dto, err := r.toUserDTO(user)
	if err != nil {
		log.Error().Err(err).Int64("userId", id).Msg("Failed to expand user")
		writeError(w, http.StatusInternalServerError, "failed to expand user")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (r *Router) handleCreateUser(w http.ResponseWriter, req *http.Request) {
	var body userRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := body.validate(); msg != "" {
		log.Warn().Str("reason", msg).Msg("User creation validation failed")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := r.store.CreateUser(strings.TrimSpace(body.Name), body.CountryID, body.CompanyID)
	if errors.Is(err, store.ErrCountryNotFound) || errors.Is(err, store.ErrCompanyNotFound) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	// Metrics are recorded after, never before, the store mutation
	// succeeds; recording failures never fail the request.
	r.metrics.RecordCreated(user.CountryID, user.CompanyID)

	dto, err := r.toUserDTO(user)
	if err != nil {
		log.Error().Err(err).Int64("userId", user.ID).Msg("Failed to expand created user")
		writeError(w, http.StatusInternalServerError, "failed to expand user")
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	var body userRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := body.validate(); msg != "" {
		log.Warn().Str("reason", msg).Msg("User update validation failed")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	previous, updated, err := r.store.UpdateUser(id, strings.TrimSpace(body.Name), body.CountryID, body.CompanyID)
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if errors.Is(err, store.ErrCountryNotFound) || errors.Is(err, store.ErrCompanyNotFound) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("userId", id).Msg("Failed to update user")
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	r.metrics.RecordUpdated(previous.CountryID, previous.CompanyID, updated.CountryID, updated.CompanyID)

	dto, err := r.toUserDTO(updated)
	if err != nil {
		log.Error().Err(err).Int64("userId", id).Msg("Failed to expand updated user")
		writeError(w, http.StatusInternalServerError, "failed to expand user")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	deleted, err := r.store.DeleteUser(id)
	if errors.Is(err, store.ErrUserNotFound) {
		// Deleting a missing user is treated as success.
		log.Warn().Int64("userId", id).Msg("Cannot delete user: user does not exist")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("userId", id).Msg("Failed to delete user")
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	r.metrics.RecordDeleted(deleted.CountryID, deleted.CompanyID)
	w.WriteHeader(http.StatusNoContent)
}

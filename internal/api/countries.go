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

type countryRequest struct {
	Name string `json:"name"`
}

func (r *Router) handleListCountries(w http.ResponseWriter, req *http.Request) {
	countries, err := r.store.ListCountries()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list countries")
		writeError(w, http.StatusInternalServerError, "failed to list countries")
		return
	}

	dtos := make([]models.CountryDTO, 0, len(countries))
	for _, c := range countries {
		dtos = append(dtos, r.toCountryDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (r *Router) handleGetCountry(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	country, err := r.store.GetCountry(id)
	if errors.Is(err, store.ErrCountryNotFound) {
		writeError(w, http.StatusNotFound, "country not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("countryId", id).Msg("Failed to get country")
		writeError(w, http.StatusInternalServerError, "failed to get country")
		return
	}
	writeJSON(w, http.StatusOK, r.toCountryDTO(country))
}

func (r *Router) handleCreateCountry(w http.ResponseWriter, req *http.Request) {
	var body countryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	country, err := r.store.CreateCountry(strings.TrimSpace(body.Name))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create country")
		writeError(w, http.StatusInternalServerError, "failed to create country")
		return
	}
	writeJSON(w, http.StatusCreated, r.toCountryDTO(country))
}

func (r *Router) handleDeleteCountry(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}

	err := r.store.DeleteCountry(id)
	if errors.Is(err, store.ErrCountryNotFound) {
		writeError(w, http.StatusNotFound, "country not found")
		return
	}
	if errors.Is(err, store.ErrInUse) {
		writeError(w, http.StatusConflict, "country is still referenced")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("countryId", id).Msg("Failed to delete country")
		writeError(w, http.StatusInternalServerError, "failed to delete country")
		return
	}

	r.directory.InvalidateCountry(id)
	w.WriteHeader(http.StatusNoContent)
}

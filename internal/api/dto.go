package api

import (
	"fmt"

	"github.com/ravnco/userdemo/internal/models"
)

// toCountryDTO maps a country to its API shape.
func (r *Router) toCountryDTO(c models.Country) models.CountryDTO {
	return models.CountryDTO{ID: c.ID, Name: c.Name}
}

// toCompanyDTO expands a company's country reference.
func (r *Router) toCompanyDTO(c models.Company) (models.CompanyDTO, error) {
	country, err := r.store.GetCountry(c.CountryID)
	if err != nil {
		return models.CompanyDTO{}, fmt.Errorf("failed to expand country %d: %w", c.CountryID, err)
	}
	return models.CompanyDTO{ID: c.ID, Name: c.Name, Country: r.toCountryDTO(country)}, nil
}

// toUserDTO expands a user's company and country references.
func (r *Router) toUserDTO(u models.User) (models.UserDTO, error) {
	country, err := r.store.GetCountry(u.CountryID)
	if err != nil {
		return models.UserDTO{}, fmt.Errorf("failed to expand country %d: %w", u.CountryID, err)
	}
	company, err := r.store.GetCompany(u.CompanyID)
	if err != nil {
		return models.UserDTO{}, fmt.Errorf("failed to expand company %d: %w", u.CompanyID, err)
	}
	companyDTO, err := r.toCompanyDTO(company)
	if err != nil {
		return models.UserDTO{}, err
	}
	return models.UserDTO{
		ID:      u.ID,
		Name:    u.Name,
		Country: r.toCountryDTO(country),
		Company: companyDTO,
	}, nil
}

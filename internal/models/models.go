// Package models defines the core data types shared across the service.
package models

// Country is a dimension entity users are grouped by.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Company is a dimension entity users are grouped by. Every company
// belongs to a country.
type Company struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CountryID int64  `json:"countryId"`
}

// User is the entity being counted. CountryID and CompanyID are opaque
// foreign keys resolved to label strings by the directory.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CountryID int64  `json:"countryId"`
	CompanyID int64  `json:"companyId"`
}

// CountryDTO is the API representation of a country.
type CountryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CompanyDTO expands the company's country reference.
type CompanyDTO struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Country CountryDTO `json:"country"`
}

// UserDTO expands the user's company and country references.
type UserDTO struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Country CountryDTO `json:"country"`
	Company CompanyDTO `json:"company"`
}

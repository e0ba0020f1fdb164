package store

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Seed populates the database with a small sample dataset. It is
// idempotent: if any country already exists the pass is skipped.
func Seed(s *Store) error {
	countries, err := s.ListCountries()
	if err != nil {
		return fmt.Errorf("failed to check existing data: %w", err)
	}
	if len(countries) > 0 {
		log.Info().Msg("Countries already exist, skipping data initialization")
		return nil
	}

	log.Info().Msg("Initializing database with sample data")

	usa, err := s.CreateCountry("United States")
	if err != nil {
		return err
	}
	canada, err := s.CreateCountry("Canada")
	if err != nil {
		return err
	}
	germany, err := s.CreateCountry("Germany")
	if err != nil {
		return err
	}

	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	if err != nil {
		return err
	}
	techCo, err := s.CreateCompany("Tech Innovations Inc", canada.ID)
	if err != nil {
		return err
	}
	engineering, err := s.CreateCompany("Engineering Solutions GmbH", germany.ID)
	if err != nil {
		return err
	}

	sample := []struct {
		name      string
		countryID int64
		companyID int64
	}{
		{"Moritz", germany.ID, engineering.ID},
		{"Andy", usa.ID, acme.ID},
		{"Phil", canada.ID, techCo.ID},
		{"Brian", usa.ID, acme.ID},
		{"Stephane", canada.ID, techCo.ID},
	}
	for _, u := range sample {
		if _, err := s.CreateUser(u.name, u.countryID, u.companyID); err != nil {
			return err
		}
	}

	log.Info().Msg("Sample data initialization completed")
	return nil
}

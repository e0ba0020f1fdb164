// Package store persists users, companies, and countries in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ravnco/userdemo/internal/models"
)

// Typed lookup failures. The API layer maps these to 400/404 responses and
// the directory maps them to its own not-found signal.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrCountryNotFound = errors.New("country not found")
	ErrInUse           = errors.New("entity is still referenced")
)

// Store is a SQLite-backed entity store.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if needed) the database under dataDir.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "userdemo.db")

	// Pragmas go in the DSN so every pool connection is configured.
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
			"foreign_keys(ON)",
		},
	}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("dbPath", dbPath).Msg("Entity store opened")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		country_id INTEGER NOT NULL REFERENCES countries(id)
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		country_id INTEGER NOT NULL REFERENCES countries(id),
		company_id INTEGER NOT NULL REFERENCES companies(id)
	);

	CREATE INDEX IF NOT EXISTS idx_companies_country ON companies(country_id);
	CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id);
	CREATE INDEX IF NOT EXISTS idx_users_country ON users(country_id);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// --- countries ---

// CreateCountry inserts a country and returns it with its assigned id.
func (s *Store) CreateCountry(name string) (models.Country, error) {
	res, err := s.db.Exec(`INSERT INTO countries (name) VALUES (?)`, name)
	if err != nil {
		return models.Country{}, fmt.Errorf("failed to insert country: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Country{}, fmt.Errorf("failed to read country id: %w", err)
	}
	log.Info().Int64("id", id).Str("name", name).Msg("Country created")
	return models.Country{ID: id, Name: name}, nil
}

// GetCountry returns the country with the given id.
func (s *Store) GetCountry(id int64) (models.Country, error) {
	var c models.Country
	err := s.db.QueryRow(`SELECT id, name FROM countries WHERE id = ?`, id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Country{}, ErrCountryNotFound
	}
	if err != nil {
		return models.Country{}, fmt.Errorf("failed to query country: %w", err)
	}
	return c, nil
}

// ListCountries returns all countries ordered by id.
func (s *Store) ListCountries() ([]models.Country, error) {
	rows, err := s.db.Query(`SELECT id, name FROM countries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	var countries []models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// DeleteCountry removes a country. Countries still referenced by companies
// or users cannot be deleted.
func (s *Store) DeleteCountry(id int64) error {
	var refs int
	err := s.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM companies WHERE country_id = ?) +
		       (SELECT COUNT(*) FROM users WHERE country_id = ?)`, id, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to check country references: %w", err)
	}
	if refs > 0 {
		return ErrInUse
	}

	res, err := s.db.Exec(`DELETE FROM countries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete country: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCountryNotFound
	}
	log.Info().Int64("id", id).Msg("Country deleted")
	return nil
}

// --- companies ---

// CreateCompany inserts a company after verifying its country exists.
func (s *Store) CreateCompany(name string, countryID int64) (models.Company, error) {
	if _, err := s.GetCountry(countryID); err != nil {
		return models.Company{}, err
	}

	res, err := s.db.Exec(`INSERT INTO companies (name, country_id) VALUES (?, ?)`, name, countryID)
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to insert company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to read company id: %w", err)
	}
	log.Info().Int64("id", id).Str("name", name).Int64("countryId", countryID).Msg("Company created")
	return models.Company{ID: id, Name: name, CountryID: countryID}, nil
}

// GetCompany returns the company with the given id.
func (s *Store) GetCompany(id int64) (models.Company, error) {
	var c models.Company
	err := s.db.QueryRow(`SELECT id, name, country_id FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CountryID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to query company: %w", err)
	}
	return c, nil
}

// ListCompanies returns all companies ordered by id.
func (s *Store) ListCompanies() ([]models.Company, error) {
	rows, err := s.db.Query(`SELECT id, name, country_id FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CountryID); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// DeleteCompany removes a company. Companies with employees cannot be
// deleted.
func (s *Store) DeleteCompany(id int64) error {
	var refs int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE company_id = ?`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to check company references: %w", err)
	}
	if refs > 0 {
		return ErrInUse
	}

	res, err := s.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCompanyNotFound
	}
	log.Info().Int64("id", id).Msg("Company deleted")
	return nil
}

// --- users ---

// CreateUser inserts a user after verifying its country and company exist.
func (s *Store) CreateUser(name string, countryID, companyID int64) (models.User, error) {
	if _, err := s.GetCountry(countryID); err != nil {
		return models.User{}, err
	}
	if _, err := s.GetCompany(companyID); err != nil {
		return models.User{}, err
	}

	res, err := s.db.Exec(`INSERT INTO users (name, country_id, company_id) VALUES (?, ?, ?)`,
		name, countryID, companyID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	log.Info().
		Int64("id", id).
		Str("name", name).
		Int64("countryId", countryID).
		Int64("companyId", companyID).
		Msg("User created")
	return models.User{ID: id, Name: name, CountryID: countryID, CompanyID: companyID}, nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, name, country_id, company_id FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.CountryID, &u.CompanyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by id. This is the read the startup
// reconciliation pass depends on.
func (s *Store) ListUsers() ([]models.User, error) {
	return s.queryUsers(`SELECT id, name, country_id, company_id FROM users ORDER BY id`)
}

// ListUsersByCompany returns the employees of a company.
func (s *Store) ListUsersByCompany(companyID int64) ([]models.User, error) {
	return s.queryUsers(
		`SELECT id, name, country_id, company_id FROM users WHERE company_id = ? ORDER BY id`,
		companyID)
}

func (s *Store) queryUsers(query string, args ...any) ([]models.User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CountryID, &u.CompanyID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user's name and dimension references. The previous
// row is returned so callers can record the transition.
func (s *Store) UpdateUser(id int64, name string, countryID, companyID int64) (previous, updated models.User, err error) {
	previous, err = s.GetUser(id)
	if err != nil {
		return models.User{}, models.User{}, err
	}
	if _, err := s.GetCountry(countryID); err != nil {
		return models.User{}, models.User{}, err
	}
	if _, err := s.GetCompany(companyID); err != nil {
		return models.User{}, models.User{}, err
	}

	_, err = s.db.Exec(`UPDATE users SET name = ?, country_id = ?, company_id = ? WHERE id = ?`,
		name, countryID, companyID, id)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	updated = models.User{ID: id, Name: name, CountryID: countryID, CompanyID: companyID}
	log.Info().Int64("id", id).Str("name", name).Msg("User updated")
	return previous, updated, nil
}

// DeleteUser removes a user and returns the deleted row so callers can
// record the event.
func (s *Store) DeleteUser(id int64) (models.User, error) {
	u, err := s.GetUser(id)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return models.User{}, fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info().Int64("id", id).Msg("User deleted")
	return u, nil
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCountryCRUD(t *testing.T) {
	s := newTestStore(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	assert.Positive(t, usa.ID)

	got, err := s.GetCountry(usa.ID)
	require.NoError(t, err)
	assert.Equal(t, "United States", got.Name)

	_, err = s.GetCountry(999)
	assert.ErrorIs(t, err, ErrCountryNotFound)

	countries, err := s.ListCountries()
	require.NoError(t, err)
	assert.Len(t, countries, 1)

	require.NoError(t, s.DeleteCountry(usa.ID))
	_, err = s.GetCountry(usa.ID)
	assert.ErrorIs(t, err, ErrCountryNotFound)

	assert.ErrorIs(t, s.DeleteCountry(usa.ID), ErrCountryNotFound)
}

func TestCompanyRequiresCountry(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateCompany("Acme Corporation", 42)
	assert.ErrorIs(t, err, ErrCountryNotFound)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)

	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)
	assert.Equal(t, usa.ID, acme.CountryID)
}

func TestDeleteCountryInUse(t *testing.T) {
	s := newTestStore(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	_, err = s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteCountry(usa.ID), ErrInUse)
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	canada, err := s.CreateCountry("Canada")
	require.NoError(t, err)
	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)
	techCo, err := s.CreateCompany("Tech Innovations Inc", canada.ID)
	require.NoError(t, err)

	_, err = s.CreateUser("Andy", 999, acme.ID)
	assert.ErrorIs(t, err, ErrCountryNotFound)
	_, err = s.CreateUser("Andy", usa.ID, 999)
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	andy, err := s.CreateUser("Andy", usa.ID, acme.ID)
	require.NoError(t, err)

	got, err := s.GetUser(andy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Andy", got.Name)
	assert.Equal(t, acme.ID, got.CompanyID)

	previous, updated, err := s.UpdateUser(andy.ID, "Andy", canada.ID, techCo.ID)
	require.NoError(t, err)
	assert.Equal(t, usa.ID, previous.CountryID)
	assert.Equal(t, acme.ID, previous.CompanyID)
	assert.Equal(t, canada.ID, updated.CountryID)
	assert.Equal(t, techCo.ID, updated.CompanyID)

	_, _, err = s.UpdateUser(999, "Nobody", usa.ID, acme.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	deleted, err := s.DeleteUser(andy.ID)
	require.NoError(t, err)
	assert.Equal(t, canada.ID, deleted.CountryID)

	_, err = s.DeleteUser(andy.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsersByCompany(t *testing.T) {
	s := newTestStore(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)
	other, err := s.CreateCompany("Tech Innovations Inc", usa.ID)
	require.NoError(t, err)

	_, err = s.CreateUser("Andy", usa.ID, acme.ID)
	require.NoError(t, err)
	_, err = s.CreateUser("Brian", usa.ID, acme.ID)
	require.NoError(t, err)
	_, err = s.CreateUser("Phil", usa.ID, other.ID)
	require.NoError(t, err)

	employees, err := s.ListUsersByCompany(acme.ID)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	assert.ErrorIs(t, s.DeleteCompany(acme.ID), ErrInUse)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, Seed(s))
	require.NoError(t, Seed(s))

	countries, err := s.ListCountries()
	require.NoError(t, err)
	assert.Len(t, countries, 3)

	companies, err := s.ListCompanies()
	require.NoError(t, err)
	assert.Len(t, companies, 3)

	users, err := s.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 5)
}

package directory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravnco/userdemo/internal/store"
)

func newTestDirectory(t *testing.T) (*Cached, *store.Store) {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewCached(s), s
}

func TestResolveNames(t *testing.T) {
	dir, s := newTestDirectory(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)

	name, err := dir.CountryName(usa.ID)
	require.NoError(t, err)
	assert.Equal(t, "United States", name)

	name, err = dir.CompanyName(acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", name)
}

func TestResolveNotFound(t *testing.T) {
	dir, _ := newTestDirectory(t)

	_, err := dir.CountryName(42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = dir.CompanyName(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheServesAfterDeletion(t *testing.T) {
	dir, s := newTestDirectory(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)

	name, err := dir.CountryName(usa.ID)
	require.NoError(t, err)
	assert.Equal(t, "United States", name)

	require.NoError(t, s.DeleteCountry(usa.ID))

	// Still cached until invalidated.
	name, err = dir.CountryName(usa.ID)
	require.NoError(t, err)
	assert.Equal(t, "United States", name)

	dir.InvalidateCountry(usa.ID)
	_, err = dir.CountryName(usa.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidateCompany(t *testing.T) {
	dir, s := newTestDirectory(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)
	acme, err := s.CreateCompany("Acme Corporation", usa.ID)
	require.NoError(t, err)

	_, err = dir.CompanyName(acme.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCompany(acme.ID))
	dir.InvalidateCompany(acme.ID)

	_, err = dir.CompanyName(acme.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentResolution(t *testing.T) {
	dir, s := newTestDirectory(t)

	usa, err := s.CreateCountry("United States")
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			name, err := dir.CountryName(usa.ID)
			if err != nil {
				errs <- err
				return
			}
			if name != "United States" {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent resolution failed: %v", err)
	}
}

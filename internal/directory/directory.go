// Package directory resolves company and country ids to their display
// names, which the metrics aggregator uses as series labels.
package directory

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ravnco/userdemo/internal/store"
)

// ErrNotFound is the only resolution failure the aggregator handles. Any
// other lookup error is reported as-is and treated the same way by callers
// (log and drop).
var ErrNotFound = errors.New("label not found")

// Directory resolves dimension ids to labels. Read-only.
type Directory interface {
	CompanyName(id int64) (string, error)
	CountryName(id int64) (string, error)
}

// Cached is a read-through cache over the entity store. Names are cached
// forever until invalidated; concurrent misses for the same id collapse
// into a single store read.
type Cached struct {
	store *store.Store

	mu        sync.RWMutex
	companies map[int64]string
	countries map[int64]string

	group singleflight.Group
}

// NewCached creates a directory backed by the given store.
func NewCached(s *store.Store) *Cached {
	return &Cached{
		store:     s,
		companies: make(map[int64]string),
		countries: make(map[int64]string),
	}
}

// CompanyName resolves a company id to its name.
func (d *Cached) CompanyName(id int64) (string, error) {
	d.mu.RLock()
	name, ok := d.companies[id]
	d.mu.RUnlock()
	if ok {
		return name, nil
	}

	v, err, _ := d.group.Do(fmt.Sprintf("company:%d", id), func() (any, error) {
		company, err := d.store.GetCompany(id)
		if errors.Is(err, store.ErrCompanyNotFound) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", err
		}
		d.mu.Lock()
		d.companies[id] = company.Name
		d.mu.Unlock()
		return company.Name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CountryName resolves a country id to its name.
func (d *Cached) CountryName(id int64) (string, error) {
	d.mu.RLock()
	name, ok := d.countries[id]
	d.mu.RUnlock()
	if ok {
		return name, nil
	}

	v, err, _ := d.group.Do(fmt.Sprintf("country:%d", id), func() (any, error) {
		country, err := d.store.GetCountry(id)
		if errors.Is(err, store.ErrCountryNotFound) {
			return "", ErrNotFound
		}
		if err != nil {
			return "", err
		}
		d.mu.Lock()
		d.countries[id] = country.Name
		d.mu.Unlock()
		return country.Name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// InvalidateCompany drops a cached company name. Called after company
// mutations.
func (d *Cached) InvalidateCompany(id int64) {
	d.mu.Lock()
	delete(d.companies, id)
	d.mu.Unlock()
}

// InvalidateCountry drops a cached country name. Called after country
// mutations.
func (d *Cached) InvalidateCountry(id int64) {
	d.mu.Lock()
	delete(d.countries, id)
	d.mu.Unlock()
}

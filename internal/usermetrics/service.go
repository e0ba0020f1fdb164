// Package usermetrics maintains live per-dimension user counts and
// lifecycle event counters, exported as gauges and counters through a
// metrics sink.
//
// The service is invoked synchronously from concurrent request handlers.
// Recording is strictly best-effort: a failure to resolve a dimension drops
// the event with a warning and is never surfaced to the caller.
package usermetrics

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/ravnco/userdemo/internal/directory"
	"github.com/ravnco/userdemo/internal/models"
)

// Series names at the aggregator boundary. The sink owns the translation
// to its exposition format.
const (
	metricCreatedTotal   = "users.created.total"
	metricUpdatedTotal   = "users.updated.total"
	metricDeletedTotal   = "users.deleted.total"
	metricCountByCompany = "users.count.by.company"
	metricCountByCountry = "users.count.by.country"

	tagCompanyName = "company.name"
	tagCountryName = "country.name"
)

// Service translates user lifecycle events into thread-safe updates to
// live counts and event counters. Construct with New; dependencies are
// injected so tests can substitute fakes.
type Service struct {
	directory directory.Directory
	sink      Sink

	// mu guards the maps below. Cells are mutated atomically outside the
	// lock, so only first-occurrence creation contends on it.
	mu            sync.Mutex
	companyCounts map[string]*atomic.Int64
	countryCounts map[string]*atomic.Int64
	registered    map[string]struct{}
	counters      map[string]Counter
}

// New creates a metrics service.
func New(dir directory.Directory, sink Sink) *Service {
	return &Service{
		directory:     dir,
		sink:          sink,
		companyCounts: make(map[string]*atomic.Int64),
		countryCounts: make(map[string]*atomic.Int64),
		registered:    make(map[string]struct{}),
		counters:      make(map[string]Counter),
	}
}

// Reconcile seeds live counts from the current set of users. Event
// counters are not touched. Call exactly once, before the service starts
// receiving live traffic; users whose dimensions cannot be resolved are
// skipped with a warning.
func (s *Service) Reconcile(users []models.User) {
	log.Info().Int("users", len(users)).Msg("Initializing user metrics from existing users")

	for _, u := range users {
		s.incrementLiveCounts(u.CountryID, u.CompanyID)
	}

	s.mu.Lock()
	companies, countries := len(s.companyCounts), len(s.countryCounts)
	s.mu.Unlock()
	log.Debug().
		Int("companies", companies).
		Int("countries", countries).
		Msg("User metrics initialized")
}

// RecordCreated records a user creation. Increments both live counts and
// the created counter for the label pair.
func (s *Service) RecordCreated(countryID, companyID int64) {
	companyName, countryName, ok := s.resolve(countryID, companyID, "creation")
	if !ok {
		return
	}

	s.incCompany(companyName, countryName)
	s.incCountry(countryName)
	s.counter(metricCreatedTotal, "Total number of users created", companyName, countryName).Inc()

	log.Debug().Str("company", companyName).Str("country", countryName).Msg("Recorded user creation")
}

// RecordDeleted records a user deletion. Decrements both live counts and
// increments the deleted counter. Counts are not clamped at zero; a
// negative result is logged as an anomaly but preserved.
func (s *Service) RecordDeleted(countryID, companyID int64) {
	companyName, countryName, ok := s.resolve(countryID, companyID, "deletion")
	if !ok {
		return
	}

	s.decCompany(companyName)
	s.decCountry(countryName)
	s.counter(metricDeletedTotal, "Total number of users deleted", companyName, countryName).Inc()

	log.Debug().Str("company", companyName).Str("country", countryName).Msg("Recorded user deletion")
}

// RecordUpdated records a user update. If a dimension changed, the old
// label's live count is decremented and the new label's incremented;
// unchanged dimensions are left untouched. The updated counter for the new
// label pair is always incremented, including for in-place updates.
func (s *Service) RecordUpdated(oldCountryID, oldCompanyID, newCountryID, newCompanyID int64) {
	newCompanyName, newCountryName, ok := s.resolve(newCountryID, newCompanyID, "update")
	if !ok {
		return
	}

	if oldCompanyID != newCompanyID {
		if oldCompanyName, err := s.directory.CompanyName(oldCompanyID); err != nil {
			log.Warn().
				Err(err).
				Int64("companyId", oldCompanyID).
				Msg("Cannot decrement gauge: previous company not found")
		} else {
			s.decCompany(oldCompanyName)
		}
		s.incCompany(newCompanyName, newCountryName)
	}

	if oldCountryID != newCountryID {
		if oldCountryName, err := s.directory.CountryName(oldCountryID); err != nil {
			log.Warn().
				Err(err).
				Int64("countryId", oldCountryID).
				Msg("Cannot decrement gauge: previous country not found")
		} else {
			s.decCountry(oldCountryName)
		}
		s.incCountry(newCountryName)
	}

	s.counter(metricUpdatedTotal, "Total number of users updated", newCompanyName, newCountryName).Inc()

	log.Debug().Str("company", newCompanyName).Str("country", newCountryName).Msg("Recorded user update")
}

// resolve looks up both labels for an event. Failure of either lookup
// drops the whole event: no partial state update is ever applied.
func (s *Service) resolve(countryID, companyID int64, event string) (companyName, countryName string, ok bool) {
	countryName, countryErr := s.directory.CountryName(countryID)
	companyName, companyErr := s.directory.CompanyName(companyID)

	if countryErr != nil || companyErr != nil {
		log.Warn().
			Int64("countryId", countryID).
			Int64("companyId", companyID).
			Str("event", event).
			Msg("Cannot record user event: country or company not found")
		return "", "", false
	}
	return companyName, countryName, true
}

// incrementLiveCounts applies the gauge-only part of a creation, used by
// Reconcile.
func (s *Service) incrementLiveCounts(countryID, companyID int64) {
	companyName, countryName, ok := s.resolve(countryID, companyID, "seed")
	if !ok {
		return
	}
	s.incCompany(companyName, countryName)
	s.incCountry(countryName)
}

// incCompany bumps the live count for a company, lazily creating the cell
// and registering its gauge on first occurrence. Two concurrent first
// occurrences end up sharing one cell and one registration.
func (s *Service) incCompany(companyName, countryName string) {
	s.mu.Lock()
	cell, ok := s.companyCounts[companyName]
	if !ok {
		cell = &atomic.Int64{}
		s.companyCounts[companyName] = cell
		s.registerGauge("company:"+companyName, metricCountByCompany,
			"Number of users in company",
			Tags{tagCompanyName: companyName, tagCountryName: countryName}, cell)
	}
	s.mu.Unlock()

	cell.Add(1)
}

func (s *Service) incCountry(countryName string) {
	s.mu.Lock()
	cell, ok := s.countryCounts[countryName]
	if !ok {
		cell = &atomic.Int64{}
		s.countryCounts[countryName] = cell
		s.registerGauge("country:"+countryName, metricCountByCountry,
			"Number of users in country",
			Tags{tagCountryName: countryName}, cell)
	}
	s.mu.Unlock()

	cell.Add(1)
}

// decCompany decrements an existing company cell. A label never seen
// before has no cell and the decrement is skipped, matching the lazy
// creation on the increment path.
func (s *Service) decCompany(companyName string) {
	s.mu.Lock()
	cell := s.companyCounts[companyName]
	s.mu.Unlock()
	if cell == nil {
		log.Debug().Str("company", companyName).Msg("No live count cell for company, skipping decrement")
		return
	}
	if v := cell.Add(-1); v < 0 {
		log.Warn().Str("company", companyName).Int64("count", v).Msg("Live user count for company went negative")
	}
}

func (s *Service) decCountry(countryName string) {
	s.mu.Lock()
	cell := s.countryCounts[countryName]
	s.mu.Unlock()
	if cell == nil {
		log.Debug().Str("country", countryName).Msg("No live count cell for country, skipping decrement")
		return
	}
	if v := cell.Add(-1); v < 0 {
		log.Warn().Str("country", countryName).Int64("count", v).Msg("Live user count for country went negative")
	}
}

// registerGauge registers a gauge bound to a cell exactly once per key.
// Caller must hold s.mu.
func (s *Service) registerGauge(key, name, help string, tags Tags, cell *atomic.Int64) {
	if _, done := s.registered[key]; done {
		return
	}
	s.registered[key] = struct{}{}
	s.sink.Gauge(name, help, tags, func() float64 {
		return float64(cell.Load())
	})
	log.Info().Str("series", name).Str("key", key).Msg("Registered gauge")
}

// counter returns the event counter handle for a label pair, registering
// it with the sink on first use.
func (s *Service) counter(name, help, companyName, countryName string) Counter {
	key := name + "|" + companyName + "|" + countryName

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		c = s.sink.Counter(name, help, Tags{
			tagCompanyName: companyName,
			tagCountryName: countryName,
		})
		s.counters[key] = c
	}
	return c
}

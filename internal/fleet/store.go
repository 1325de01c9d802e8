// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/fleetinsights/internal/chart"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/daterange"
	"github.com/tomtom215/fleetinsights/internal/detection"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/scheduler"
)

// Defaults applied to zero config values.
const (
	DefaultPollInterval      = 15 * time.Second
	DefaultFilterDebounce    = 600 * time.Millisecond
	DefaultEventsMaxVehicles = 3
)

// EventSink receives every newly derived event set.
type EventSink interface {
	PublishEvents(ctx context.Context, events []models.FleetEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, events []models.FleetEvent)

// PublishEvents calls f.
func (f EventSinkFunc) PublishEvents(ctx context.Context, events []models.FleetEvent) {
	f(ctx, events)
}

// Options wires a Store's collaborators. Nil fields get defaults.
type Options struct {
	Config    config.FleetConfig
	Scheduler *scheduler.Scheduler
	Deriver   *detection.Deriver
	Calendar  *daterange.Calendar
	Drivers   *DriverCache
	Events    EventSink
}

// Store is the fleet state coordinator.
type Store struct {
	svc     *Service
	drivers *DriverCache
	deriver *detection.Deriver
	cal     *daterange.Calendar
	sched   *scheduler.Scheduler
	sink    EventSink
	cfg     config.FleetConfig

	mu           sync.RWMutex
	vehicles     []models.Vehicle
	trips        []models.Trip
	events       []models.FleetEvent
	speedChart   []models.SpeedPoint
	lastUpdated  string
	selectedID   string
	highlightID  string
	historyID    string
	eventsID     string
	statusFilter StatusFilter
	searchQuery  string
	loading      Loading
	errs         Errors
	filterRange  *daterange.Range
	filterCode   string
	enriched     bool
	reloadCancel context.CancelFunc

	listenersMu  sync.Mutex
	listeners    map[uint64]func()
	nextListener uint64

	viewersMu sync.Mutex
	viewers   int
	poller    *scheduler.Poller
	debouncer *scheduler.Debouncer

	lifetime context.Context
	shutdown context.CancelFunc
}

// NewStore creates a Store.
func NewStore(svc *Service, opts Options) *Store {
	cfg := opts.Config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FilterDebounce <= 0 {
		cfg.FilterDebounce = DefaultFilterDebounce
	}
	if cfg.EventsMaxVehicles <= 0 {
		cfg.EventsMaxVehicles = DefaultEventsMaxVehicles
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.New(nil)
	}
	cal := opts.Calendar
	if cal == nil {
		cal = daterange.NewCalendar(sched.Clock())
	}
	deriver := opts.Deriver
	if deriver == nil {
		deriver = detection.NewDeriver(detection.DefaultConfig())
	}
	drivers := opts.Drivers
	if drivers == nil {
		drivers = NewDriverCache()
	}

	lifetime, shutdown := context.WithCancel(context.Background())

	s := &Store{
		svc:          svc,
		drivers:      drivers,
		deriver:      deriver,
		cal:          cal,
		sched:        sched,
		sink:         opts.Events,
		cfg:          cfg,
		vehicles:     []models.Vehicle{},
		trips:        []models.Trip{},
		events:       []models.FleetEvent{},
		speedChart:   []models.SpeedPoint{},
		statusFilter: FilterAll,
		filterRange:  daterange.NewRange(cal),
		listeners:    make(map[uint64]func()),
		lifetime:     lifetime,
		shutdown:     shutdown,
	}
	s.poller = scheduler.NewPoller("vehicles", cfg.PollInterval, sched, func(ctx context.Context) {
		_ = s.LoadVehicles(logging.ContextWithNewCorrelationID(ctx))
	})
	s.debouncer = scheduler.NewDebouncer(sched, cfg.FilterDebounce)
	return s
}

// Calendar returns the calendar that resolves "today" for the store.
func (s *Store) Calendar() *daterange.Calendar {
	return s.cal
}

// Drivers returns the permanent driver cache.
func (s *Store) Drivers() *DriverCache {
	return s.drivers
}

// Serve blocks until ctx is done and then stops polling and any pending
// debounced reload. It satisfies suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.Close()
	return ctx.Err()
}

// Close cancels timers and in-flight background loads.
func (s *Store) Close() {
	s.debouncer.Cancel()
	s.viewersMu.Lock()
	s.poller.Stop()
	s.viewers = 0
	s.viewersMu.Unlock()
	s.shutdown()
}

// LoadVehicles replaces the vehicle list with a fresh snapshot. Cached
// driver names are re-applied to vehicles that arrive without one. The
// first successful load also runs driver enrichment before returning.
//
// On failure the previous vehicle list is kept. Results that arrive after
// ctx is cancelled are discarded.
func (s *Store) LoadVehicles(ctx context.Context) error {
	s.mu.Lock()
	s.loading.Vehicles = true
	s.errs.Vehicles = nil
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loading.Vehicles = false
		s.mu.Unlock()
		s.notify()
	}()

	vehicles, err := s.svc.FetchVehicles(ctx)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return ctx.Err()
	}
	if err != nil {
		s.errs.Vehicles = errorMessage(err, msgVehiclesFailed)
		s.mu.Unlock()
		logging.Ctx(ctx).Warn().Err(err).Msg("Vehicle refresh failed")
		metrics.RecordFleetRefresh(nil, err)
		return err
	}

	// Applied under the lock so a driver learned by a concurrent trip load
	// cannot land on the list being replaced.
	s.drivers.Apply(vehicles)
	s.vehicles = vehicles
	s.lastUpdated = s.sched.Clock().Now().UTC().Format(time.RFC3339Nano)
	first := !s.enriched && s.cfg.EnrichmentEnabled
	if first {
		s.enriched = true
	}
	s.mu.Unlock()
	s.notify()

	counts := models.CountVehicles(vehicles)
	metrics.RecordFleetRefresh(map[string]int{
		string(models.StatusMoving):  counts.Moving,
		string(models.StatusIdle):    counts.Idle,
		string(models.StatusOffline): counts.Offline,
	}, nil)

	if first && !s.enrichDrivers(ctx) {
		s.mu.Lock()
		s.enriched = false
		s.mu.Unlock()
	}
	return nil
}

// enrichDrivers fetches each known vehicle's trips from one month back,
// one vehicle at a time, learning driver names as it goes. Per-vehicle
// failures are skipped. It returns false if ctx ended before every vehicle
// was attempted.
func (s *Store) enrichDrivers(ctx context.Context) bool {
	from := daterange.ToAPIFrom(s.cal.OneMonthAgo())
	to := daterange.ToAPITo(s.cal.Today())
	codes := s.AllVehicleCodes()
	start := s.sched.Clock().Now()

	logging.Ctx(ctx).Info().Int("vehicles", len(codes)).Msg("Starting driver enrichment")

	for _, code := range codes {
		if ctx.Err() != nil {
			logging.Ctx(ctx).Info().Msg("Driver enrichment interrupted")
			return false
		}
		trips, err := s.svc.FetchTrips(ctx, code, from, to)
		metrics.RecordEnrichment(err)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("vehicle", code).Msg("Driver enrichment skipped vehicle")
			continue
		}
		if s.drivers.LearnTrips(trips) > 0 {
			s.reapplyDrivers()
		}
	}

	logging.Ctx(ctx).Info().
		Int("drivers", s.drivers.Len()).
		Dur("duration", s.sched.Clock().Since(start)).
		Msg("Driver enrichment finished")
	return true
}

func (s *Store) reapplyDrivers() {
	s.mu.Lock()
	n := s.drivers.Apply(s.vehicles)
	s.mu.Unlock()
	if n > 0 {
		s.notify()
	}
}

// LoadTrips replaces the trip list. An empty vehicleCode loads every known
// vehicle in parallel and tolerates individual failures. from and to use
// the provider's local time format.
func (s *Store) LoadTrips(ctx context.Context, vehicleCode, from, to string) error {
	s.mu.Lock()
	s.loading.Trips = true
	s.errs.Trips = nil
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loading.Trips = false
		s.mu.Unlock()
		s.notify()
	}()

	var trips []models.Trip
	var err error
	if vehicleCode != "" {
		trips, err = s.svc.FetchTrips(ctx, vehicleCode, from, to)
	} else {
		trips = s.svc.FetchTripsFor(ctx, s.AllVehicleCodes(), from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("vehicle", vehicleCode).Msg("Trip load failed")
		s.errs.Trips = errorMessage(err, msgTripsFailed)
		return err
	}

	s.drivers.LearnTrips(trips)
	s.trips = trips
	s.drivers.Apply(s.vehicles)
	return nil
}

// LoadEvents derives events from trips and replaces the event list. An
// empty vehicleCode samples at most the configured number of vehicles.
func (s *Store) LoadEvents(ctx context.Context, vehicleCode, from, to string) error {
	s.mu.Lock()
	s.loading.Events = true
	s.errs.Events = nil
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loading.Events = false
		s.mu.Unlock()
		s.notify()
	}()

	var trips []models.Trip
	var err error
	if vehicleCode != "" {
		trips, err = s.svc.FetchTrips(ctx, vehicleCode, from, to)
	} else {
		codes := s.AllVehicleCodes()
		if len(codes) > s.cfg.EventsMaxVehicles {
			codes = codes[:s.cfg.EventsMaxVehicles]
		}
		trips = s.svc.FetchTripsFor(ctx, codes, from, to)
	}
	events := s.deriver.Derive(trips)

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return ctx.Err()
	}
	if err != nil {
		s.errs.Events = errorMessage(err, msgEventsFailed)
		s.mu.Unlock()
		logging.Ctx(ctx).Warn().Err(err).Str("vehicle", vehicleCode).Msg("Event load failed")
		return err
	}
	s.drivers.LearnEvents(events)
	s.events = events
	s.drivers.Apply(s.vehicles)
	s.mu.Unlock()

	if s.sink != nil && len(events) > 0 {
		s.sink.PublishEvents(ctx, events)
	}
	return nil
}

// LoadSpeedChart rebuilds the speed chart for one vehicle. Without a
// vehicle, or when the fetch fails, the chart is empty.
func (s *Store) LoadSpeedChart(ctx context.Context, vehicleCode, from, to string, binHours int) error {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return ctx.Err()
	}
	s.speedChart = []models.SpeedPoint{}
	s.loading.SpeedChart = true
	s.mu.Unlock()
	s.notify()

	defer func() {
		s.mu.Lock()
		s.loading.SpeedChart = false
		s.mu.Unlock()
		s.notify()
	}()

	if vehicleCode == "" {
		return nil
	}

	trips, err := s.svc.FetchTrips(ctx, vehicleCode, from, to)
	if err != nil && ctx.Err() == nil {
		logging.Ctx(ctx).Debug().Err(err).Str("vehicle", vehicleCode).Msg("Speed chart load failed")
		return nil
	}
	points := chart.BuildSpeedChart(trips, binHours)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.speedChart = points
	return nil
}

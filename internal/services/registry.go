package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/events"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// Registry defaults
const (
	DefaultFeeBps               uint32 = 1931
	DefaultCollateralLockPeriod        = 24 * time.Hour
)

// Config holds the marketplace parameters of a JobRegistry
type Config struct {
	// FeeBps is the marketplace fee taken from the payment when a job is completed
	FeeBps uint32
	// Treasury receives the marketplace fee
	Treasury string
	// CollateralLockPeriod is how long a job's funds stay locked after it opens
	CollateralLockPeriod time.Duration
}

// Option configures a JobRegistry
type Option func(*JobRegistry)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) Option {
	return func(r *JobRegistry) {
		r.clock = c
	}
}

// WithBus publishes committed events on bus
func WithBus(bus *events.Bus) Option {
	return func(r *JobRegistry) {
		r.bus = bus
	}
}

// JobRegistry owns every job and applies the lifecycle operations.
//
// Mutations are applied one at a time: each takes the registry lock and runs in a
// single database transaction, so an operation either commits with all of its events
// or leaves no trace. Reads go straight to the repositories.
type JobRegistry struct {
	mu sync.Mutex

	db          *gorm.DB
	jobs        *repos.JobRepository
	events      *repos.EventRepository
	users       *repos.UserRepository
	arbitrators *repos.ArbitratorRepository
	reviews     *repos.ReviewRepository
	bridge      escrow.Bridge
	clock       clock.Clock
	bus         *events.Bus
	cfg         Config
}

// NewJobRegistry creates a registry on gdb that moves funds through bridge
func NewJobRegistry(gdb *gorm.DB, bridge escrow.Bridge, cfg Config, opts ...Option) *JobRegistry {
	if cfg.CollateralLockPeriod == 0 {
		cfg.CollateralLockPeriod = DefaultCollateralLockPeriod
	}
	r := &JobRegistry{
		db:          gdb,
		jobs:        repos.NewJobRepository(gdb),
		events:      repos.NewEventRepository(gdb),
		users:       repos.NewUserRepository(gdb),
		arbitrators: repos.NewArbitratorRepository(gdb),
		reviews:     repos.NewReviewRepository(gdb),
		bridge:      bridge,
		clock:       clock.New(),
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the marketplace parameters
func (r *JobRegistry) Config() Config {
	return r.cfg
}

// Now returns the registry clock time
func (r *JobRegistry) Now() time.Time {
	return r.clock.Now()
}

// op is the state of one mutating operation
type op struct {
	ctx context.Context
	r   *JobRegistry
	now time.Time

	job      *models.Job
	revision uint64 // stored revision of job when it was loaded
	count    uint64 // events stored for job when it was loaded
	pending  []models.JobEvent
	created  bool
	review   *models.Review
}

// mutate runs fn as one serialized, atomic operation and publishes its events after commit
func (r *JobRegistry) mutate(ctx context.Context, name string, fn func(o *op) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var committed []models.JobEvent
	var phase models.JobPhase
	err := db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		o := &op{ctx: ctx, r: r, now: r.clock.Now().UTC()}
		if err := fn(o); err != nil {
			return err
		}
		if err := o.flush(); err != nil {
			return err
		}
		committed = o.pending
		if o.job != nil {
			phase = o.job.Phase()
		}
		return nil
	})
	if err != nil {
		logger.DebugWithFields("operation rejected", map[string]interface{}{
			"operation": name,
			"error":     err.Error(),
		})
		return err
	}

	if r.bus != nil {
		for _, e := range committed {
			r.bus.Publish(events.Event{JobEvent: e, Phase: phase})
		}
	}
	return nil
}

// load reads the job the operation works on
func (o *op) load(jobID uint) (*models.Job, error) {
	job, err := o.r.jobs.GetByID(o.ctx, jobID)
	if err != nil {
		return nil, wrapNotFound(err, "job %d not found", jobID)
	}
	o.job = job
	o.revision = job.Revision
	o.count = job.Revision + 1
	return job, nil
}

// create inserts a new job and makes it the operation's job
func (o *op) create(job *models.Job) error {
	if err := o.r.jobs.Create(o.ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	o.job = job
	o.revision = 0
	o.count = 0
	o.created = true
	return nil
}

// setState moves the job to state and stamps the change time
func (o *op) setState(state models.JobState) {
	o.job.State = state
	o.job.StateChangedAt = o.now
}

// emit queues an event on the operation's job. Indexes continue from the stored events.
func (o *op) emit(eventType models.JobEventType, actor string, payload interface{}) error {
	if o.job == nil {
		return errors.New("emit without a job")
	}
	raw := []byte("{}")
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
		}
	}
	o.pending = append(o.pending, models.JobEvent{
		JobID:     o.job.ID,
		Index:     o.count + uint64(len(o.pending)),
		Type:      eventType,
		Actor:     actor,
		Timestamp: o.now,
		Payload:   raw,
	})
	return nil
}

// flush appends the queued events and writes the job at its new revision
func (o *op) flush() error {
	if o.job == nil {
		return nil
	}
	if len(o.pending) == 0 && !o.created {
		return nil
	}
	for i := range o.pending {
		if err := o.r.events.Append(o.ctx, &o.pending[i]); err != nil {
			return err
		}
	}
	o.job.Revision = revisionAt(o.count + uint64(len(o.pending)))
	return o.r.jobs.Update(o.ctx, o.job, o.revision)
}

// ensureUser creates the user row of addr on first interaction
func (o *op) ensureUser(addr string) error {
	if err := o.r.users.Ensure(o.ctx, addr); err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", addr, err)
	}
	return nil
}

func wrapNotFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := notFound(format, args...)
		e.Err = err
		return e
	}
	return err
}

// normalize validates an address argument
func normalize(field, addr string) (string, error) {
	normalized, err := signing.NormalizeAddress(addr)
	if err != nil {
		return "", invalidArgument("invalid %s address %q", field, addr)
	}
	return normalized, nil
}

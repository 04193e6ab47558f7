// Package migration replays versioned data migrations over the document
// collections. The applied versions live in the side store, apart from the
// database they describe.
package migration

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/kv"
)

const StatusKey = "mm_migration_status"

// StepFunc runs inside the step's transaction.
type StepFunc func(ctx context.Context, db database.DBTX) error

// Step is one versioned migration. Build steps with New.
type Step interface {
	Version() int
	Description() string

	up(ctx context.Context, db database.DBTX) error
	down(ctx context.Context, db database.DBTX) error
}

type step struct {
	version     int
	description string
	upFn        StepFunc
	downFn      StepFunc
}

func New(version int, description string, up, down StepFunc) Step {
	return &step{version: version, description: description, upFn: up, downFn: down}
}

func (s *step) Version() int        { return s.version }
func (s *step) Description() string { return s.description }

func (s *step) up(ctx context.Context, db database.DBTX) error {
	if s.upFn == nil {
		return nil
	}

	return s.upFn(ctx, db)
}

func (s *step) down(ctx context.Context, db database.DBTX) error {
	if s.downFn == nil {
		return nil
	}

	return s.downFn(ctx, db)
}

type Applied struct {
	Version   int       `json:"version"`
	AppliedAt time.Time `json:"appliedAt"`
}

type Status struct {
	CurrentVersion int       `json:"currentVersion"`
	Migrations     []Applied `json:"migrations"`
}

type Service struct {
	src    database.Source
	state  kv.Store
	steps  []Step
	logger *slog.Logger
	now    func() time.Time
}

// NewService registers steps. Passing no steps registers DefaultSteps.
func NewService(src database.Source, state kv.Store, logger *slog.Logger, steps ...Step) *Service {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}

	sorted := slices.Clone(steps)
	slices.SortFunc(sorted, func(a, b Step) int { return cmp.Compare(a.Version(), b.Version()) })

	return &Service{
		src:    src,
		state:  state,
		steps:  sorted,
		logger: logger,
		now:    database.Now,
	}
}

func (s *Service) status() Status {
	var st Status
	if !s.state.Get(StatusKey, &st) {
		return Status{Migrations: []Applied{}}
	}

	return st
}

func (s *Service) CurrentVersion() int {
	return s.status().CurrentVersion
}

func (s *Service) LatestVersion() int {
	if len(s.steps) == 0 {
		return 0
	}

	return s.steps[len(s.steps)-1].Version()
}

func (s *Service) NeedsMigration() bool {
	return s.CurrentVersion() < s.LatestVersion()
}

// Migrate applies every step above the current version, lowest first. Each
// version is recorded as soon as its step commits; the first failure stops the
// run and leaves earlier steps applied.
func (s *Service) Migrate(ctx context.Context) error {
	current := s.CurrentVersion()

	for _, st := range s.steps {
		if st.Version() <= current {
			continue
		}

		s.logger.Info("applying migration", "version", st.Version(), "description", st.Description())

		if err := s.run(ctx, st.up); err != nil {
			return &apperr.MigrationError{Version: st.Version(), Direction: apperr.Up, Err: err}
		}

		if err := s.record(st.Version()); err != nil {
			return &apperr.MigrationError{Version: st.Version(), Direction: apperr.Up, Err: err}
		}
	}

	return nil
}

// Rollback runs the down steps above target, highest first. A target at or
// above the current version does nothing.
func (s *Service) Rollback(ctx context.Context, target int) error {
	current := s.CurrentVersion()
	if target >= current {
		return nil
	}

	for _, st := range slices.Backward(s.steps) {
		if st.Version() <= target || st.Version() > current {
			continue
		}

		s.logger.Info("rolling back migration", "version", st.Version(), "description", st.Description())

		if err := s.run(ctx, st.down); err != nil {
			return &apperr.MigrationError{Version: st.Version(), Direction: apperr.Down, Err: err}
		}

		if err := s.unrecord(st.Version()); err != nil {
			return &apperr.MigrationError{Version: st.Version(), Direction: apperr.Down, Err: err}
		}
	}

	return nil
}

func (s *Service) run(ctx context.Context, fn func(context.Context, database.DBTX) error) error {
	return s.src.InTx(ctx, func(tx *database.Tx) error {
		return fn(ctx, tx)
	})
}

func (s *Service) record(version int) error {
	st := s.status()
	st.Migrations = append(st.Migrations, Applied{Version: version, AppliedAt: s.now()})
	st.CurrentVersion = max(st.CurrentVersion, version)

	if err := s.state.Set(StatusKey, st); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return nil
}

func (s *Service) unrecord(version int) error {
	st := s.status()
	st.Migrations = slices.DeleteFunc(st.Migrations, func(a Applied) bool { return a.Version == version })

	st.CurrentVersion = 0
	for _, a := range st.Migrations {
		st.CurrentVersion = max(st.CurrentVersion, a.Version)
	}

	if err := s.state.Set(StatusKey, st); err != nil {
		return fmt.Errorf("recording rollback: %w", err)
	}

	return nil
}

// History lists applied migrations by ascending version.
func (s *Service) History() []Applied {
	applied := s.status().Migrations
	slices.SortStableFunc(applied, func(a, b Applied) int { return cmp.Compare(a.Version, b.Version) })

	return applied
}

// Reset forgets every applied version. The data is left alone.
func (s *Service) Reset() error {
	if err := s.state.Remove(StatusKey); err != nil {
		return fmt.Errorf("resetting migration status: %w", err)
	}

	return nil
}

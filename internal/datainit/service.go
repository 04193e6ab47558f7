// Package datainit seeds default categories and accounts on first run and
// checks that the seed data is still in place.
package datainit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/kv"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const (
	StatusKey   = "mm_init_status"
	DataVersion = "1.0.0"
)

type CategoryStore interface {
	Count(ctx context.Context) (int, error)
	CreateMany(ctx context.Context, cs []category.Category) ([]category.Category, error)
	FindSystem(ctx context.Context) ([]category.Category, error)
	NameExists(ctx context.Context, name string, t record.Type, excludeID string) (bool, error)
}

type AccountStore interface {
	Count(ctx context.Context) (int, error)
	CreateMany(ctx context.Context, as []account.Account) ([]account.Account, error)
}

type Status struct {
	IsInitialized bool      `json:"isInitialized"`
	Version       string    `json:"version"`
	InitDate      time.Time `json:"initDate"`
	Categories    bool      `json:"categories"`
	Accounts      bool      `json:"accounts"`
}

type Health string

const (
	Healthy     Health = "healthy"
	NeedsRepair Health = "needs_repair"
	NeedsInit   Health = "needs_init"
)

type CollectionHealth struct {
	Count      int  `json:"count"`
	HasDefault bool `json:"hasDefault"`
}

type Integrity struct {
	Categories CollectionHealth `json:"categories"`
	Accounts   CollectionHealth `json:"accounts"`
	Status     Health           `json:"status"`
}

type Service struct {
	categories CategoryStore
	accounts   AccountStore
	state      kv.Store
	logger     *slog.Logger
}

func NewService(categories CategoryStore, accounts AccountStore, state kv.Store, logger *slog.Logger) *Service {
	return &Service{categories: categories, accounts: accounts, state: state, logger: logger}
}

func (s *Service) status() Status {
	var st Status
	if !s.state.Get(StatusKey, &st) {
		return Status{Version: DataVersion}
	}

	return st
}

func (s *Service) IsInitialized() bool {
	return s.status().IsInitialized
}

// InitializeApp seeds defaults into empty collections and marks the app as
// initialised. Once marked, it does nothing.
func (s *Service) InitializeApp(ctx context.Context) error {
	if s.IsInitialized() {
		return nil
	}

	if err := s.seed(ctx); err != nil {
		return err
	}

	st := Status{
		IsInitialized: true,
		Version:       DataVersion,
		InitDate:      database.Now(),
		Categories:    true,
		Accounts:      true,
	}

	if err := s.state.Set(StatusKey, st); err != nil {
		return fmt.Errorf("marking app initialised: %w", err)
	}

	s.logger.Info("app data initialised")

	return nil
}

func (s *Service) seed(ctx context.Context) error {
	if err := s.seedCategories(ctx); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	if err := s.seedAccounts(ctx); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}

	return nil
}

func (s *Service) seedCategories(ctx context.Context) error {
	n, err := s.categories.Count(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		s.logger.Debug("categories exist, skipping seed", "count", n)
		return nil
	}

	created, err := s.categories.CreateMany(ctx, DefaultCategories())
	if err != nil {
		return err
	}

	s.logger.Info("seeded default categories", "count", len(created))

	return nil
}

func (s *Service) seedAccounts(ctx context.Context) error {
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		s.logger.Debug("accounts exist, skipping seed", "count", n)
		return nil
	}

	created, err := s.accounts.CreateMany(ctx, DefaultAccounts())
	if err != nil {
		return err
	}

	s.logger.Info("seeded default accounts", "count", len(created))

	return nil
}

// ResetInitialization forgets the init flag. Seeded data stays.
func (s *Service) ResetInitialization() error {
	if err := s.state.Remove(StatusKey); err != nil {
		return fmt.Errorf("resetting init status: %w", err)
	}

	return nil
}

func (s *Service) Reinitialize(ctx context.Context) error {
	if err := s.ResetInitialization(); err != nil {
		return err
	}

	return s.InitializeApp(ctx)
}

// CheckDataIntegrity classifies the seed data. A failed check reads as NeedsInit.
func (s *Service) CheckDataIntegrity(ctx context.Context) Integrity {
	integrity, err := s.checkDataIntegrity(ctx)
	if err != nil {
		s.logger.Error("checking data integrity", "error", err)
		return Integrity{Status: NeedsInit}
	}

	return integrity
}

func (s *Service) checkDataIntegrity(ctx context.Context) (Integrity, error) {
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return Integrity{}, err
	}

	system, err := s.categories.FindSystem(ctx)
	if err != nil {
		return Integrity{}, err
	}

	accounts, err := s.accounts.Count(ctx)
	if err != nil {
		return Integrity{}, err
	}

	integrity := Integrity{
		Categories: CollectionHealth{Count: categories, HasDefault: len(system) > 0},
		Accounts:   CollectionHealth{Count: accounts, HasDefault: accounts > 0},
		Status:     Healthy,
	}

	switch {
	case categories == 0 || accounts == 0:
		integrity.Status = NeedsInit
	case !integrity.Categories.HasDefault:
		integrity.Status = NeedsRepair
	}

	return integrity, nil
}

// RepairData seeds whatever CheckDataIntegrity found missing. Failures are
// logged, never returned.
func (s *Service) RepairData(ctx context.Context) {
	integrity := s.CheckDataIntegrity(ctx)

	switch integrity.Status {
	case NeedsInit:
		if err := s.seed(ctx); err != nil {
			s.logger.Error("repairing seed data", "error", err)
			return
		}

		if !s.IsInitialized() {
			if err := s.InitializeApp(ctx); err != nil {
				s.logger.Error("marking app initialised", "error", err)
			}
		}
	case NeedsRepair:
		if err := s.restoreSystemCategories(ctx); err != nil {
			s.logger.Error("restoring system categories", "error", err)
		}
	case Healthy:
	}
}

// restoreSystemCategories adds the default categories whose names are free.
func (s *Service) restoreSystemCategories(ctx context.Context) error {
	var missing []category.Category

	for _, c := range DefaultCategories() {
		exists, err := s.categories.NameExists(ctx, c.Name, c.Type, "")
		if err != nil {
			return err
		}

		if !exists {
			missing = append(missing, c)
		}
	}

	if len(missing) == 0 {
		s.logger.Warn("no default category names are free, nothing restored")
		return nil
	}

	created, err := s.categories.CreateMany(ctx, missing)
	if err != nil {
		return err
	}

	s.logger.Info("restored system categories", "count", len(created))

	return nil
}

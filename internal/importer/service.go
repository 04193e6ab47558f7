// Package importer reads record CSV files and stores them against existing
// categories and accounts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type Service struct {
	src        database.Source
	parser     *Parser
	records    *record.Repository
	categories *category.Repository
	accounts   *account.Repository
	logger     *slog.Logger
}

func NewService(
	src database.Source,
	records *record.Repository,
	categories *category.Repository,
	accounts *account.Repository,
	logger *slog.Logger,
) *Service {
	return &Service{
		src:        src,
		parser:     NewParser(),
		records:    records,
		categories: categories,
		accounts:   accounts,
		logger:     logger,
	}
}

// Preview parses r and resolves every row without storing anything.
func (s *Service) Preview(ctx context.Context, r io.Reader) ([]record.Record, error) {
	drafts, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, s.categories, s.accounts, drafts)
}

// Import stores every row of r as a new record, or none of them.
func (s *Service) Import(ctx context.Context, r io.Reader) ([]record.Record, error) {
	drafts, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	var created []record.Record

	err = s.src.InTx(ctx, func(tx *database.Tx) error {
		recs, err := s.resolve(ctx, s.categories.In(tx), s.accounts.In(tx), drafts)
		if err != nil {
			return err
		}

		created, err = s.records.In(tx).CreateMany(ctx, recs)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("importing records: %w", err)
	}

	s.logger.Info("imported records", "count", len(created))

	return created, nil
}

type categoryKey struct {
	name string
	t    record.Type
}

func (s *Service) resolve(ctx context.Context, categories *category.Repository, accounts *account.Repository, drafts []Draft) ([]record.Record, error) {
	cats, err := categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	accts, err := accounts.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// Enabled categories win over disabled ones of the same name.
	catByKey := make(map[categoryKey]string, len(cats))
	for _, c := range cats {
		key := categoryKey{strings.ToLower(c.Name), c.Type}
		if _, taken := catByKey[key]; !taken || c.IsEnabled {
			catByKey[key] = c.ID
		}
	}

	acctByName := make(map[string]string, len(accts))
	for _, a := range accts {
		acctByName[strings.ToLower(a.Name)] = a.ID
	}

	var reasons []apperr.Reason

	fail := func(d Draft, rule, msg string) {
		reasons = append(reasons, apperr.Reason{Field: fmt.Sprintf("line %d", d.Line), Rule: rule, Message: msg})
	}

	recs := make([]record.Record, 0, len(drafts))

	for _, d := range drafts {
		catID, ok := catByKey[categoryKey{strings.ToLower(d.Category), d.Type}]
		if !ok {
			fail(d, "category", fmt.Sprintf("no %s category named %q", d.Type, d.Category))
			continue
		}

		acctID, ok := acctByName[strings.ToLower(d.Account)]
		if !ok {
			fail(d, "account", fmt.Sprintf("no account named %q", d.Account))
			continue
		}

		rec := record.Record{
			Type:       d.Type,
			Amount:     d.Amount,
			CategoryID: catID,
			AccountID:  acctID,
			Date:       d.Date,
			Time:       d.Time,
			Remark:     d.Remark,
			Tags:       d.Tags,
		}

		if err := rec.Validate(); err != nil {
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}

			for _, r := range verr.Reasons {
				fail(d, r.Rule, r.Field+" "+r.Message)
			}

			continue
		}

		recs = append(recs, rec)
	}

	if len(reasons) > 0 {
		return nil, apperr.Invalid("import", reasons...)
	}

	return recs, nil
}

// Package setting stores free-form application settings keyed by name.
package setting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/validate"
)

type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// namespace seeds the deterministic setting ids.
var namespace = uuid.MustParse("8f1c6c1e-3a55-4d7a-9d2c-6b0b7a4f0e21")

type Setting struct {
	docstore.Meta
	Key   string          `json:"key" validate:"required,max=100"`
	Value json.RawMessage `json:"value" validate:"required"`
	Type  Type            `json:"type" validate:"oneof=string number boolean object array"`
}

func (s Setting) Validate() error {
	return validate.Struct("setting", s)
}

// ID is the row id for key. A key always maps to the same row.
func ID(key string) string {
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

type Repository struct {
	docs *docstore.Collection[Setting, *Setting]
}

func NewRepository(src database.Source, opts ...docstore.Option) *Repository {
	return &Repository{docs: docstore.New[Setting](src, database.Settings, opts...)}
}

// Get decodes the value stored under key into dst.
func (r *Repository) Get(ctx context.Context, key string, dst any) (bool, error) {
	s, found, err := r.docs.FindByID(ctx, ID(key))
	if err != nil || !found {
		return false, err
	}

	if err := json.Unmarshal(s.Value, dst); err != nil {
		return false, fmt.Errorf("decoding setting %q: %w", key, err)
	}

	return true, nil
}

// Set stores value under key, replacing what was there.
func (r *Repository) Set(ctx context.Context, key string, value any) (Setting, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Setting{}, fmt.Errorf("encoding setting %q: %w", key, err)
	}

	s := Setting{Key: key, Value: raw, Type: typeOf(raw)}
	s.ID = ID(key)

	stored, err := r.docs.Put(ctx, s)
	if err != nil {
		return Setting{}, fmt.Errorf("storing setting %q: %w", key, err)
	}

	return stored, nil
}

func (r *Repository) Delete(ctx context.Context, key string) (bool, error) {
	return r.docs.Delete(ctx, ID(key))
}

func (r *Repository) All(ctx context.Context) ([]Setting, error) {
	return r.docs.Find(ctx, docstore.Query{OrderBy: "setting_key ASC"})
}

func typeOf(raw json.RawMessage) Type {
	switch raw[0] {
	case '"':
		return TypeString
	case 't', 'f':
		return TypeBoolean
	case '{', 'n':
		return TypeObject
	case '[':
		return TypeArray
	}

	return TypeNumber
}

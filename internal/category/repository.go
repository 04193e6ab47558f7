package category

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const (
	rootClause    = "(parent_id IS NULL OR parent_id = '')"
	childClause   = "(parent_id IS NOT NULL AND parent_id != '')"
	enabledClause = "is_enabled = 1"

	sortOrder = "sort_order ASC, created_at ASC, id ASC"
)

type Repository struct {
	docs    *docstore.Collection[Category, *Category]
	records *record.Repository
}

func NewRepository(src database.Source, opts ...docstore.Option) *Repository {
	return &Repository{
		docs:    docstore.New[Category](src, database.Categories, opts...),
		records: record.NewRepository(src, opts...),
	}
}

func (r *Repository) In(tx *database.Tx) *Repository {
	return &Repository{docs: r.docs.In(tx), records: r.records.In(tx)}
}

func (r *Repository) inTx(ctx context.Context, fn func(repo *Repository) error) error {
	return r.docs.Source().InTx(ctx, func(tx *database.Tx) error {
		return fn(r.In(tx))
	})
}

// Create stores a new category. Names are unique per type and a parent, when
// given, must be an existing top-level category of the same type.
func (r *Repository) Create(ctx context.Context, c Category) (Category, error) {
	var created Category

	err := r.inTx(ctx, func(repo *Repository) error {
		if err := repo.checkNew(ctx, c); err != nil {
			return err
		}

		var err error
		created, err = repo.docs.Create(ctx, c)

		return err
	})
	if err != nil {
		return Category{}, fmt.Errorf("creating category: %w", err)
	}

	return created, nil
}

func (r *Repository) checkNew(ctx context.Context, c Category) error {
	exists, err := r.NameExists(ctx, c.Name, c.Type, "")
	if err != nil {
		return err
	}

	if exists {
		return apperr.Invalid("category", apperr.Reason{Field: "name", Rule: "unique", Message: "already exists for this type"})
	}

	if c.ParentID == "" {
		return nil
	}

	parent, found, err := r.docs.FindByID(ctx, c.ParentID)
	if err != nil {
		return err
	}

	if !found {
		return apperr.Invalid("category", apperr.Reason{Field: "parentId", Rule: "exists", Message: "parent category does not exist"})
	}

	if parent.Type != c.Type {
		return apperr.Invalid("category", apperr.Reason{Field: "parentId", Rule: "type", Message: "parent category has a different type"})
	}

	// Categories nest one level deep.
	if !parent.IsRoot() {
		return apperr.Integrity("create category", "parent must be a top-level category")
	}

	return nil
}

// CreateMany stores every category or none of them. A zero Order takes the
// position in the batch.
func (r *Repository) CreateMany(ctx context.Context, cs []Category) ([]Category, error) {
	created := make([]Category, 0, len(cs))

	err := r.inTx(ctx, func(repo *Repository) error {
		for i, c := range cs {
			if c.Order == 0 {
				c.Order = i
			}

			if err := repo.checkNew(ctx, c); err != nil {
				return err
			}

			stored, err := repo.docs.Create(ctx, c)
			if err != nil {
				return err
			}

			created = append(created, stored)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating categories: %w", err)
	}

	return created, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Category, bool, error) {
	return r.docs.FindByID(ctx, id)
}

func (r *Repository) FindAll(ctx context.Context) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{OrderBy: sortOrder})
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx)
}

// Update applies p. A rename must stay unique within the category's type.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (Category, bool, error) {
	var (
		updated Category
		found   bool
	)

	err := r.inTx(ctx, func(repo *Repository) error {
		var err error

		updated, found, err = repo.docs.Update(ctx, id, func(c Category) (Category, error) {
			next, err := c.Apply(p)
			if err != nil {
				return c, err
			}

			if next.Name != c.Name {
				exists, err := repo.NameExists(ctx, next.Name, next.Type, c.ID)
				if err != nil {
					return c, err
				}

				if exists {
					return c, apperr.Invalid("category", apperr.Reason{Field: "name", Rule: "unique", Message: "already exists for this type"})
				}
			}

			return next, nil
		})

		return err
	})
	if err != nil {
		return Category{}, found, fmt.Errorf("updating category: %w", err)
	}

	return updated, found, nil
}

// FindByType returns the enabled categories of type t.
func (r *Repository) FindByType(ctx context.Context, t record.Type) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   "type = ? AND " + enabledClause,
		Args:    []any{string(t)},
		OrderBy: sortOrder,
	})
}

func (r *Repository) FindByParent(ctx context.Context, parentID string) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{
		Where:   "parent_id = ?",
		Args:    []any{parentID},
		OrderBy: sortOrder,
	})
}

// FindParents returns enabled root categories, optionally of one type.
func (r *Repository) FindParents(ctx context.Context, t *record.Type) ([]Category, error) {
	return r.findEnabledWhere(ctx, rootClause, t)
}

// FindChildren returns enabled non-root categories, optionally of one type.
func (r *Repository) FindChildren(ctx context.Context, t *record.Type) ([]Category, error) {
	return r.findEnabledWhere(ctx, childClause, t)
}

func (r *Repository) findEnabledWhere(ctx context.Context, clause string, t *record.Type) ([]Category, error) {
	where := clause + " AND " + enabledClause

	var args []any

	if t != nil {
		where += " AND type = ?"

		args = append(args, string(*t))
	}

	return r.docs.Find(ctx, docstore.Query{Where: where, Args: args, OrderBy: sortOrder})
}

func (r *Repository) FindEnabled(ctx context.Context) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{Where: enabledClause, OrderBy: sortOrder})
}

func (r *Repository) FindSystem(ctx context.Context) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{Where: "is_system = 1", OrderBy: sortOrder})
}

func (r *Repository) FindCustom(ctx context.Context) ([]Category, error) {
	return r.docs.Find(ctx, docstore.Query{Where: "is_system = 0", OrderBy: sortOrder})
}

type Query struct {
	Type      record.Type `json:"type,omitempty"`
	ParentID  *string     `json:"parentId,omitempty"`
	IsEnabled *bool       `json:"isEnabled,omitempty"`
	// Keyword matches a substring of the name.
	Keyword string `json:"keyword,omitempty"`
}

func (r *Repository) FindByQuery(ctx context.Context, q Query) ([]Category, error) {
	clauses := []string{"1 = 1"}

	var args []any

	if q.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(q.Type))
	}

	if q.ParentID != nil {
		if *q.ParentID == "" {
			clauses = append(clauses, rootClause)
		} else {
			clauses = append(clauses, "parent_id = ?")
			args = append(args, *q.ParentID)
		}
	}

	if q.IsEnabled != nil {
		clauses = append(clauses, "is_enabled = ?")
		args = append(args, *q.IsEnabled)
	}

	if q.Keyword != "" {
		clauses = append(clauses, "instr(name, ?) > 0")
		args = append(args, q.Keyword)
	}

	return r.docs.Find(ctx, docstore.Query{
		Where:   strings.Join(clauses, " AND "),
		Args:    args,
		OrderBy: sortOrder,
	})
}

// BuildTree arranges the enabled categories, optionally of one type, under
// their parents. A category whose parent is missing or disabled is left out.
func (r *Repository) BuildTree(ctx context.Context, t *record.Type) ([]*Node, error) {
	var (
		cats []Category
		err  error
	)

	if t != nil {
		cats, err = r.FindByType(ctx, *t)
	} else {
		cats, err = r.FindEnabled(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("building category tree: %w", err)
	}

	children := map[string][]Category{}

	var roots []Category

	for _, c := range cats {
		if c.IsRoot() {
			roots = append(roots, c)
			continue
		}

		children[c.ParentID] = append(children[c.ParentID], c)
	}

	visited := map[string]bool{}

	var build func(c Category, level int) *Node

	build = func(c Category, level int) *Node {
		visited[c.ID] = true
		node := &Node{Category: c, Level: level, Children: []*Node{}}

		for _, child := range children[c.ID] {
			if visited[child.ID] {
				continue
			}

			node.Children = append(node.Children, build(child, level+1))
		}

		return node
	}

	tree := make([]*Node, 0, len(roots))
	for _, c := range roots {
		tree = append(tree, build(c, 0))
	}

	return tree, nil
}

// Path returns the chain from the root down to id. The walk stops at the first
// repeated id, so a corrupted parent cycle cannot loop forever. An unknown id
// yields an empty path.
func (r *Repository) Path(ctx context.Context, id string) ([]Category, error) {
	var path []Category

	seen := map[string]bool{}

	for next := id; next != "" && !seen[next]; {
		seen[next] = true

		c, found, err := r.docs.FindByID(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("walking category path: %w", err)
		}

		if !found {
			break
		}

		path = append(path, c)
		next = c.ParentID
	}

	slices.Reverse(path)

	return path, nil
}

// NameExists reports whether another category of type t is called name.
func (r *Repository) NameExists(ctx context.Context, name string, t record.Type, excludeID string) (bool, error) {
	return r.docs.Exists(ctx, "name = ? AND type = ? AND id != ?", name, string(t), excludeID)
}

func (r *Repository) HasChildren(ctx context.Context, id string) (bool, error) {
	return r.docs.Exists(ctx, "parent_id = ?", id)
}

// UpdateOrder sets the order of several categories at once.
func (r *Repository) UpdateOrder(ctx context.Context, updates []OrderUpdate) error {
	return r.inTx(ctx, func(repo *Repository) error {
		for _, u := range updates {
			_, found, err := repo.Update(ctx, u.ID, Patch{Order: new(u.Order)})
			if err != nil {
				return err
			}

			if !found {
				return apperr.NotFound("category", u.ID)
			}
		}

		return nil
	})
}

// Delete removes a category that has no children and no records.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(repo *Repository) error {
		_, found, err := repo.docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("category", id)
		}

		hasChildren, err := repo.HasChildren(ctx, id)
		if err != nil {
			return err
		}

		if hasChildren {
			return apperr.Integrity("delete category", "category still has child categories")
		}

		n, err := repo.records.CountByCategory(ctx, id)
		if err != nil {
			return err
		}

		if n > 0 {
			return apperr.Integrity("delete category", fmt.Sprintf("category is used by %d records", n))
		}

		_, err = repo.docs.Delete(ctx, id)

		return err
	})
}

func (r *Repository) ToggleEnabled(ctx context.Context, id string) (Category, error) {
	updated, found, err := r.docs.Update(ctx, id, func(c Category) (Category, error) {
		c.IsEnabled = !c.IsEnabled
		return c, nil
	})
	if err != nil {
		return Category{}, fmt.Errorf("toggling category: %w", err)
	}

	if !found {
		return Category{}, apperr.NotFound("category", id)
	}

	return updated, nil
}

// MoveToParent re-parents id under parentID, or makes it a root when parentID
// is empty. Moving a category under itself or one of its descendants is refused,
// and so is any move that would nest categories more than one level deep.
func (r *Repository) MoveToParent(ctx context.Context, id, parentID string) (Category, error) {
	var moved Category

	err := r.inTx(ctx, func(repo *Repository) error {
		c, found, err := repo.docs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !found {
			return apperr.NotFound("category", id)
		}

		if c.IsSystem {
			return apperr.Integrity("move category", "system categories cannot be moved")
		}

		if parentID != "" {
			path, err := repo.Path(ctx, parentID)
			if err != nil {
				return err
			}

			if len(path) == 0 {
				return apperr.NotFound("category", parentID)
			}

			for _, ancestor := range path {
				if ancestor.ID == id {
					return apperr.Integrity("move category", "target parent is the category itself or one of its descendants")
				}
			}

			if path[len(path)-1].Type != c.Type {
				return apperr.Integrity("move category", "target parent has a different type")
			}

			if len(path) > 1 {
				return apperr.Integrity("move category", "target parent must be a top-level category")
			}

			hasChildren, err := repo.HasChildren(ctx, id)
			if err != nil {
				return err
			}

			if hasChildren {
				return apperr.Integrity("move category", "a category with subcategories cannot become a subcategory")
			}
		}

		moved, _, err = repo.docs.Update(ctx, id, func(c Category) (Category, error) {
			c.ParentID = parentID
			return c, nil
		})

		return err
	})
	if err != nil {
		return Category{}, fmt.Errorf("moving category: %w", err)
	}

	return moved, nil
}

// UsageStats counts live records per category, most used first.
func (r *Repository) UsageStats(ctx context.Context) ([]Usage, error) {
	cats, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := r.records.CategoryStats(ctx, nil)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(stats))
	for _, s := range stats {
		counts[s.ID] = s.Count
	}

	usage := make([]Usage, len(cats))
	for i, c := range cats {
		usage[i] = Usage{CategoryID: c.ID, CategoryName: c.Name, RecordCount: counts[c.ID]}
	}

	slices.SortStableFunc(usage, func(a, b Usage) int {
		return cmp.Compare(b.RecordCount, a.RecordCount)
	})

	return usage, nil
}

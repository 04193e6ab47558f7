package category

import (
	"github.com/MrJamesThe3rd/mochi/internal/docstore"
	"github.com/MrJamesThe3rd/mochi/internal/record"
	"github.com/MrJamesThe3rd/mochi/internal/validate"
)

// Category groups records of one type. Categories form a tree through ParentID;
// roots have no parent.
type Category struct {
	docstore.Meta
	Name      string      `json:"name" validate:"required,max=20"`
	Type      record.Type `json:"type" validate:"oneof=income expense"`
	Icon      string      `json:"icon"`
	Color     string      `json:"color" validate:"len=7,hexcolor"`
	ParentID  string      `json:"parentId,omitempty"`
	Order     int         `json:"order" validate:"gte=0"`
	IsSystem  bool        `json:"isSystem"`
	IsEnabled bool        `json:"isEnabled"`
}

func (c Category) Validate() error {
	return validate.Struct("category", c)
}

func (c Category) IsRoot() bool { return c.ParentID == "" }

type Patch struct {
	Name      *string `json:"name,omitempty"`
	Icon      *string `json:"icon,omitempty"`
	Color     *string `json:"color,omitempty"`
	Order     *int    `json:"order,omitempty"`
	IsEnabled *bool   `json:"isEnabled,omitempty"`
}

// Apply returns a copy of c with p applied. System categories only take Order
// and IsEnabled; their other fields are left as they are.
func (c Category) Apply(p Patch) (Category, error) {
	next := c

	if p.Order != nil {
		next.Order = *p.Order
	}

	if p.IsEnabled != nil {
		next.IsEnabled = *p.IsEnabled
	}

	if !c.IsSystem {
		if p.Name != nil {
			next.Name = *p.Name
		}

		if p.Icon != nil {
			next.Icon = *p.Icon
		}

		if p.Color != nil {
			next.Color = *p.Color
		}
	}

	if err := next.Validate(); err != nil {
		return c, err
	}

	return next, nil
}

// Node is a category placed in the tree.
type Node struct {
	Category
	Level    int     `json:"level"`
	Children []*Node `json:"children"`
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Usage is how many live records use a category.
type Usage struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	RecordCount  int    `json:"recordCount"`
}

package ledger

import (
	"context"
	"strings"

	"github.com/myrizq/rizq/internal/id"
	"github.com/myrizq/rizq/internal/model"
)

// CreateCategoryParams holds parameters for a user-defined category.
type CreateCategoryParams struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Name           string `json:"name"`
	Icon           string `json:"icon,omitempty"`
	Color          string `json:"color,omitempty"`
}

// CreateCategory adds a category next to the catalog ones. Names are
// unique per user, ignoring case.
func (l *Ledger) CreateCategory(ctx context.Context, p CreateCategoryParams) (model.Category, error) {
	key := p.IdempotencyKey
	p.IdempotencyKey = ""
	hash, err := fingerprint(KindCategoryCreated, p)
	if err != nil {
		return model.Category{}, err
	}

	var out model.Category
	err = l.run(ctx, func() (*Applied, error) {
		if entry, ok, err := l.lookupIdempotent(key, hash); err != nil || ok {
			out = l.st.categories[entry.entityID]
			return nil, err
		}

		c := model.Category{ID: id.New(), Name: strings.TrimSpace(p.Name), Icon: p.Icon, Color: p.Color}
		var v validator
		v.category(c)
		for _, existing := range l.st.categories {
			v.check(!strings.EqualFold(existing.Name, c.Name), "name", "category %q already exists", existing.Name)
		}
		if err := v.err(); err != nil {
			return nil, err
		}

		applied, err := l.commit(ctx, KindCategoryCreated, key, hash, c)
		if err != nil {
			return nil, err
		}
		out = c
		return &applied, nil
	})
	return out, err
}

package option

import (
	"strconv"
	"strings"

	"asenso-booking/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption decorates a query before it is executed by a repository.
type QueryOption func(db *gorm.DB) *gorm.DB

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithSortBy orders by SortBy (created_at when empty). Fields outside Allow
// are ignored so user input can be passed straight through.
func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := s.SortBy
		if field == "" {
			field = "created_at"
		}

		if s.Allow != nil && !s.Allow[field] {
			return db
		}

		desc := !strings.EqualFold(s.OrderBy, "asc")
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: field},
			Desc:   desc,
		})
	}
}

// LockingUpdate is a scope adding SELECT ... FOR UPDATE. Dialects without
// row locks (sqlite) drop the clause.
func LockingUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func WithLockingUpdate() QueryOption {
	return LockingUpdate
}

type Operator string

const (
	EQ    Operator = "="
	NEQ   Operator = "<>"
	GT    Operator = ">"
	GTE   Operator = ">="
	LT    Operator = "<"
	LTE   Operator = "<="
	IN    Operator = "IN"
	NOTIN Operator = "NOT IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) expression() clause.Expression {
	col := clause.Column{Name: c.Field}
	switch c.Operator {
	case NEQ:
		return clause.Neq{Column: col, Value: c.Value}
	case GT:
		return clause.Gt{Column: col, Value: c.Value}
	case GTE:
		return clause.Gte{Column: col, Value: c.Value}
	case LT:
		return clause.Lt{Column: col, Value: c.Value}
	case LTE:
		return clause.Lte{Column: col, Value: c.Value}
	case IN:
		return clause.IN{Column: col, Values: toValues(c.Value)}
	case NOTIN:
		return clause.Not(clause.IN{Column: col, Values: toValues(c.Value)})
	default:
		return clause.Eq{Column: col, Value: c.Value}
	}
}

func toValues(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, 0, len(vs))
		for _, s := range vs {
			out = append(out, s)
		}
		return out
	case []int64:
		out := make([]any, 0, len(vs))
		for _, n := range vs {
			out = append(out, n)
		}
		return out
	default:
		return []any{v}
	}
}

func ApplyOperator(conds ...Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range conds {
			db = db.Where(c.expression())
		}
		return db
	}
}

// ApplyPagination fetches one row past the page size so callers can tell
// whether another page exists. The cursor carries the last seen id.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if after, ok := p.After(); ok {
			if id, err := strconv.ParseInt(after, 10, 64); err == nil {
				db = db.Where("id > ?", id)
			} else {
				db = db.Where("id > ?", after)
			}
		}

		return db.Order("id ASC").Limit(p.Size() + 1)
	}
}

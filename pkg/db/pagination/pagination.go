package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 250
)

type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=50" binding:"gte=1,lte=250"`
}

type Cursor struct {
	ID string `json:"id,omitempty"`
}

type PageInfo struct {
	NextCursor     string `json:"next_cursor"`
	PreviousCursor string `json:"previous_cursor"`
	HasMore        bool   `json:"has_more"`
}

// Size is the effective page size, clamped to [1, MaxLimit].
func (p Pagination) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// After returns the id encoded in the cursor. ok is false for an empty or
// unreadable cursor, which reads from the start.
func (p Pagination) After() (id string, ok bool) {
	if p.Cursor == "" {
		return "", false
	}
	c, err := DecodeCursor(p.Cursor)
	if err != nil || c.ID == "" {
		return "", false
	}
	return c.ID, true
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// Trim cuts rows fetched with one extra lookahead row down to the page size
// and builds the page info pointing past the last row kept.
func Trim[T any](rows []*T, p Pagination, id func(*T) int64) ([]*T, *PageInfo) {
	size := p.Size()
	if len(rows) == 0 {
		return rows, &PageInfo{}
	}

	info := &PageInfo{}
	if len(rows) > size {
		info.HasMore = true
		rows = rows[:size]
	}

	next, _ := EncodeCursor(Cursor{ID: strconv.FormatInt(id(rows[len(rows)-1]), 10)})
	info.NextCursor = next
	return rows, info
}

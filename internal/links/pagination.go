package links

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// MappingSet is a page of mappings that serialises to a JSON object keyed by
// path, keeping the page order.
type MappingSet []entities.Mapping

func (s MappingSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s[i].Path)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(&s[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Page is one slice of the mapping list.
type Page struct {
	Mappings   MappingSet `json:"mappings"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}

// ListPage returns mappings ordered newest first. Reserved paths are never
// listed or counted. A page past the end is empty and reports a zero total.
func (s *Service) ListPage(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrValidation)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: pageSize must be at least 1", ErrValidation)
	}

	empty := &Page{Mappings: MappingSet{}, Page: page, PageSize: pageSize}
	if page-1 > math.MaxInt/pageSize {
		return empty, nil
	}

	offset := (page - 1) * pageSize
	items, total, err := s.store.ListPage(ctx, ReservedExclusion(), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	if len(items) == 0 {
		return empty, nil
	}

	return &Page{
		Mappings:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nucleus/resource-core/internal/resource"
)

// Default wire keys for paginated collection endpoints.
const (
	defaultOffsetKey = "offset"
	defaultLimitKey  = "limit"
	defaultItemsKey  = "items"
	defaultTotalKey  = "total"
	defaultPageSize  = 100
)

// OffsetPager walks an offset/limit paginated collection endpoint. The
// endpoint returns either a bare JSON array of rows or an envelope
// {items: [...], total: n}; the key names are configurable per
// collection. Extra params ride along on every page request.
type OffsetPager struct {
	Path      string
	OffsetKey string
	LimitKey  string
	ItemsKey  string
	TotalKey  string
	PageSize  int
	Extra     url.Values
}

// FetchAll retrieves every page until the collection is exhausted. A
// short or empty page ends the walk, as does reaching the advertised
// total.
func (p *OffsetPager) FetchAll(ctx context.Context, client *Client) ([]resource.Row, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []resource.Row
	offset := 0
	for {
		query := url.Values{}
		for k, vs := range p.Extra {
			query[k] = vs
		}
		query.Set(keyOr(p.OffsetKey, defaultOffsetKey), strconv.Itoa(offset))
		query.Set(keyOr(p.LimitKey, defaultLimitKey), strconv.Itoa(pageSize))

		resp, err := client.Get(ctx, p.Path, query)
		if err != nil {
			return nil, err
		}
		page, total, err := p.decodePage(resp)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		offset += len(page)
		if len(page) < pageSize {
			return all, nil
		}
		if total >= 0 && offset >= total {
			return all, nil
		}
	}
}

// decodePage parses one response body into rows and the advertised
// total, -1 when the endpoint does not report one.
func (p *OffsetPager) decodePage(resp *Response) ([]resource.Row, int, error) {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil, -1, nil
	}
	if body[0] == '[' {
		var rows []resource.Row
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, -1, fmt.Errorf("decode page: %w", err)
		}
		return rows, -1, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, -1, fmt.Errorf("decode page: %w", err)
	}
	var rows []resource.Row
	if raw, ok := envelope[keyOr(p.ItemsKey, defaultItemsKey)]; ok {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, -1, fmt.Errorf("decode page items: %w", err)
		}
	}
	total := -1
	if raw, ok := envelope[keyOr(p.TotalKey, defaultTotalKey)]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			total = n
		}
	}
	return rows, total, nil
}

func keyOr(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// decodeItems parses a write response that may echo the applied rows,
// either as a bare array or under an items envelope. ok is false when
// the body carries no rows to report.
func decodeItems(resp *Response, itemsKey string) ([]resource.Row, bool) {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil, false
	}
	var raw json.RawMessage
	if body[0] == '[' {
		raw = body
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, false
		}
		var ok bool
		if raw, ok = envelope[keyOr(itemsKey, defaultItemsKey)]; !ok {
			return nil, false
		}
	}
	var rows []resource.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	if rows == nil {
		rows = []resource.Row{}
	}
	return rows, true
}

package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchPages executes a built query with increasing skip offsets and returns
// the concatenated raw records. Paging stops on the first page shorter than
// pageSize, or once maxEvents records have accumulated (maxEvents <= 0 means
// unbounded; the final page is truncated to the cap). Pages are fetched
// strictly one at a time: offset correctness depends on sequential paging.
func FetchPages(ctx context.Context, ex Executor, queryField, query string, pageSize, maxEvents int) ([]json.RawMessage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var records []json.RawMessage
	for skip := 0; ; skip += pageSize {
		data, err := ex.Execute(ctx, query, map[string]interface{}{"skip": skip})
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", skip, err)
		}

		var payload map[string]json.RawMessage
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode page at offset %d: %w", skip, err)
		}

		raw, ok := payload[queryField]
		if !ok {
			return nil, fmt.Errorf("field %s missing from response", queryField)
		}

		var page []json.RawMessage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode records for %s: %w", queryField, err)
		}

		records = append(records, page...)
		if maxEvents > 0 && len(records) >= maxEvents {
			return records[:maxEvents], nil
		}
		if len(page) < pageSize {
			return records, nil
		}
	}
}

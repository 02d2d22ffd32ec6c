package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

// pagedExecutor serves a fixed record set in pages, tracking offsets seen.
type pagedExecutor struct {
	field   string
	records []string
	offsets []int
	fail    bool
}

func (p *pagedExecutor) Execute(_ context.Context, _ string, variables map[string]interface{}) (json.RawMessage, error) {
	if p.fail {
		return nil, fmt.Errorf("boom")
	}

	skip := variables["skip"].(int)
	p.offsets = append(p.offsets, skip)

	end := skip + 2
	if skip > len(p.records) {
		skip = len(p.records)
	}
	if end > len(p.records) {
		end = len(p.records)
	}

	page, err := json.Marshal(p.records[skip:end])
	if err != nil {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{%q: %s}`, p.field, page)), nil
}

func TestFetchPagesSequential(t *testing.T) {
	ex := &pagedExecutor{field: "borrows", records: []string{"a", "b", "c", "d", "e"}}

	records, err := FetchPages(context.Background(), ex, "borrows", "query", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}
	wantOffsets := []int{0, 2, 4}
	if len(ex.offsets) != len(wantOffsets) {
		t.Fatalf("offsets = %v, want %v", ex.offsets, wantOffsets)
	}
	for i, off := range wantOffsets {
		if ex.offsets[i] != off {
			t.Fatalf("offsets = %v, want %v", ex.offsets, wantOffsets)
		}
	}
}

func TestFetchPagesStopsAtCap(t *testing.T) {
	ex := &pagedExecutor{field: "borrows", records: []string{"a", "b", "c", "d", "e", "f"}}

	records, err := FetchPages(context.Background(), ex, "borrows", "query", 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("records = %d, want cap of 3", len(records))
	}
	if len(ex.offsets) != 2 {
		t.Fatalf("fetched %d pages, want 2", len(ex.offsets))
	}
}

func TestFetchPagesEmptyFirstPage(t *testing.T) {
	ex := &pagedExecutor{field: "borrows"}

	records, err := FetchPages(context.Background(), ex, "borrows", "query", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
	if len(ex.offsets) != 1 {
		t.Fatalf("fetched %d pages, want 1", len(ex.offsets))
	}
}

func TestFetchPagesMissingField(t *testing.T) {
	ex := &pagedExecutor{field: "other", records: []string{"a"}}

	if _, err := FetchPages(context.Background(), ex, "borrows", "query", 2, 0); err == nil {
		t.Fatalf("expected error for missing response field")
	}
}

func TestFetchPagesTransportError(t *testing.T) {
	ex := &pagedExecutor{field: "borrows", fail: true}

	if _, err := FetchPages(context.Background(), ex, "borrows", "query", 2, 0); err == nil {
		t.Fatalf("expected transport error to propagate")
	}
}

package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"pharmarag-chat/pkg/ragclient"
)

const (
	defaultSnapshotPageSize = 20
	maxSnapshotPageSize     = 100
)

var ErrEmptySnapshot = errors.New("names snapshot is empty")

type snapshotFile struct {
	Names      []string `json:"names"`
	TotalCount int      `json:"total_count"`
}

// Snapshot serves names from a static list bundled with the deployment.
type Snapshot struct {
	names []string
}

// LoadSnapshot reads a {"names": [...], "total_count": N} file.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var f snapshotFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(f.Names) == 0 {
		return nil, ErrEmptySnapshot
	}
	return NewSnapshot(f.Names), nil
}

func NewSnapshot(names []string) *Snapshot {
	cp := make([]string, len(names))
	copy(cp, names)
	return &Snapshot{names: cp}
}

func (s *Snapshot) Len() int { return len(s.names) }

func (s *Snapshot) MedicineNames(ctx context.Context, page, pageSize int) (*ragclient.NamesPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paginate(s.names, page, pageSize), nil
}

// SearchMedicineNames filters by case-insensitive substring.
func (s *Snapshot) SearchMedicineNames(ctx context.Context, query string, page, pageSize int) (*ragclient.NamesPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var matched []string
	for _, n := range s.names {
		if strings.Contains(strings.ToLower(n), q) {
			matched = append(matched, n)
		}
	}
	return paginate(matched, page, pageSize), nil
}

// paginate clamps page into [1, totalPages] and pageSize into [1, 100].
func paginate(all []string, page, pageSize int) *ragclient.NamesPage {
	if pageSize < 1 {
		pageSize = defaultSnapshotPageSize
	}
	if pageSize > maxSnapshotPageSize {
		pageSize = maxSnapshotPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	if page > totalPages {
		page = max(totalPages, 1)
	}

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	names := make([]string, end-start)
	copy(names, all[start:end])

	return &ragclient.NamesPage{
		Names:       names,
		TotalCount:  total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Package reference keeps the paginated, searchable list of medicine names
// shown in the library view.
package reference

import (
	"context"

	"pharmarag-chat/pkg/ragclient"
)

// Source serves pages of medicine names. The backend client, the static
// snapshot and the caching decorator all satisfy it.
type Source interface {
	MedicineNames(ctx context.Context, page, pageSize int) (*ragclient.NamesPage, error)
	SearchMedicineNames(ctx context.Context, query string, page, pageSize int) (*ragclient.NamesPage, error)
}

var _ Source = (*ragclient.Client)(nil)

package database

import (
	"context"
	"fmt"
)

// labelRepository implements the LabelRepository interface.
type labelRepository struct {
	store *Store
}

// NewLabelRepository creates a new label repository.
func NewLabelRepository(store *Store) LabelRepository {
	return &labelRepository{
		store: store,
	}
}

// FindAllByKind retrieves every label of one kind in insertion order.
func (r *labelRepository) FindAllByKind(ctx context.Context, kind LabelKind) ([]*Label, error) {
	query := `SELECT id, kind, name FROM labels WHERE kind = ? ORDER BY id`

	rows, err := r.store.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := make([]*Label, 0)
	for rows.Next() {
		label := &Label{}
		if err := rows.Scan(&label.ID, &label.Kind, &label.Name); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}

	return labels, nil
}

// Save inserts a new label and assigns its ID.
func (r *labelRepository) Save(ctx context.Context, kind LabelKind, name string) (*Label, error) {
	query := `INSERT INTO labels (kind, name) VALUES (?, ?)`

	result, err := r.store.db.ExecContext(ctx, query, string(kind), name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s %q: %w", kind, name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read label id: %w", err)
	}

	return &Label{ID: id, Kind: kind, Name: name}, nil
}

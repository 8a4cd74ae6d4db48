package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndetkov/go-shop-core/internal/models"
)

// Status names are master data, seeded by migration and looked up by
// exact, case-sensitive string.
const (
	StatusCreated    = "Created"
	StatusPaid       = "Paid"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCompleted  = "Completed"
	StatusCanceled   = "Canceled"
	StatusReturned   = "Returned"
)

// statusTraits is the closed behavior table for the state machine.
// Transitions themselves are free (any status id is accepted); traits
// decide the side effects: whether entering the status releases the
// order's reserved stock, and whether an order in the status may be
// deleted. A status name outside this table gets zero traits.
type statusTraits struct {
	ReleasesStock bool
	Deletable     bool
}

var statusTraitTable = map[string]statusTraits{
	StatusCreated:    {},
	StatusPaid:       {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCompleted:  {},
	StatusCanceled:   {ReleasesStock: true, Deletable: true},
	StatusReturned:   {ReleasesStock: true, Deletable: true},
}

func traitsOf(statusName string) statusTraits {
	return statusTraitTable[statusName]
}

// cancelBlocked reports statuses from which cancelOrder refuses to run.
func cancelBlocked(statusName string) bool {
	return statusName == StatusDelivered || statusName == StatusCompleted
}

func getStatusByID(ctx context.Context, tx *sql.Tx, statusID int64) (*models.OrderStatus, error) {
	status := &models.OrderStatus{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, status_name FROM order_statuses WHERE id = $1`,
		statusID).Scan(&status.ID, &status.StatusName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("OrderStatus", "id", statusID, 0)
		}
		return nil, fmt.Errorf("get order status: %w", err)
	}
	return status, nil
}

func getStatusByName(ctx context.Context, tx *sql.Tx, name string) (*models.OrderStatus, error) {
	status := &models.OrderStatus{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, status_name FROM order_statuses WHERE status_name = $1`,
		name).Scan(&status.ID, &status.StatusName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newNotFound("OrderStatus", "name", name, 0)
		}
		return nil, fmt.Errorf("get order status by name: %w", err)
	}
	return status, nil
}

// ListOrderStatuses returns the global status master data.
func (s *Store) ListOrderStatuses(ctx context.Context) ([]models.OrderStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status_name FROM order_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list order statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.OrderStatus
	for rows.Next() {
		var status models.OrderStatus
		if err := rows.Scan(&status.ID, &status.StatusName); err != nil {
			return nil, fmt.Errorf("scan order status: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return statuses, nil
}

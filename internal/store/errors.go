package store

import (
	"errors"
	"fmt"
)

// NotFoundError covers both a missing row and a row owned by another
// tenant. Cross-tenant lookups must read as "not found", never as
// "forbidden", so existence is not leaked across tenants.
type NotFoundError struct {
	Entity   string
	Field    string
	Value    interface{}
	TenantID int64
}

func (e *NotFoundError) Error() string {
	if e.TenantID != 0 {
		return fmt.Sprintf("%s not found with %s: %v (tenant %d)", e.Entity, e.Field, e.Value, e.TenantID)
	}
	return fmt.Sprintf("%s not found with %s: %v", e.Entity, e.Field, e.Value)
}

func newNotFound(entity, field string, value interface{}, tenantID int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Field: field, Value: value, TenantID: tenantID}
}

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidArgumentError marks structurally invalid input: missing
// references, empty item lists, non-positive quantities.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func invalidArgument(format string, args ...interface{}) *InvalidArgumentError {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// StateConflictError marks state-machine violations: deleting a
// non-terminal order, paying a non-Created order, canceling a
// delivered/completed order, duplicating a product within an order.
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

func stateConflict(format string, args ...interface{}) *StateConflictError {
	return &StateConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInsufficientStock(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}

func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}

func IsStateConflict(err error) bool {
	var sc *StateConflictError
	return errors.As(err, &sc)
}

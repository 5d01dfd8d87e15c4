package core

import "errors"

// Domain sentinels. Services wrap these with context via fmt.Errorf("...: %w"),
// so callers check them with errors.Is and adapters map them to HTTP statuses.
var (
	// ErrStockRecordNotFound is returned when an outbound operation targets a
	// (warehouse, product, variant) aggregate that has no stock record.
	ErrStockRecordNotFound = errors.New("stock record not found")

	// ErrInsufficientStock is returned by the movement engine when an outbound
	// delta would push on-hand quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientAvailableStock is returned when quantity minus reserved
	// cannot cover a reservation or a FIFO consumption.
	ErrInsufficientAvailableStock = errors.New("insufficient available stock")

	// ErrBatchShortfall is returned by the movement engine when an outbound
	// delta names a batch that is missing or holds less than the delta.
	ErrBatchShortfall = errors.New("batch shortfall")

	// ErrBatchIntegrity is returned by FIFO consumption when the batch rows
	// under-cover the record's on-hand quantity.
	ErrBatchIntegrity = errors.New("batch records do not cover requested quantity")

	// ErrLedgerNotFound is returned by ReturnSale when a delivered sale has no
	// SALE ledger rows to derive the return from.
	ErrLedgerNotFound = errors.New("no ledger entries found")

	// ErrRollbackInsufficientStock is returned when deleting a posted purchase
	// would require removing more stock than is on hand.
	ErrRollbackInsufficientStock = errors.New("insufficient stock to roll back purchase")

	// ErrInvalidStatusTransition is returned by workflow operations called on a
	// document whose current status does not permit the transition.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrTrackingNoConflict is returned when a tracking number is already
	// assigned to another sale.
	ErrTrackingNoConflict = errors.New("tracking number already exists")
)

package engine

import "errors"

// Soft rejects: the order never enters the book, Submit returns an
// empty trade slice, and the order's Status becomes Rejected or
// Canceled. These are never propagated as faults — callers branch on
// the sentinel, they don't treat it as a crash.
var (
	ErrSymbolMismatch   = errors.New("engine: order symbol does not match book symbol")
	ErrZeroQuantity     = errors.New("engine: order quantity must be greater than zero")
	ErrDuplicateOrderID = errors.New("engine: order id already present in the book")
	ErrFOKUnfillable    = errors.New("engine: fill-or-kill order could not be matched in full")
	ErrStopNotTriggered = errors.New("engine: stop trigger was not met at submission time")
	ErrRejection        = errors.New("engine: order rejected")
	ErrUnknownSymbol    = errors.New("engine: symbol is not registered on this exchange")
)

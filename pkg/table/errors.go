package table

import "errors"

var (
	ErrNotJoined     = errors.New("not joined to the table")
	ErrNotSeated     = errors.New("not seated at the table")
	ErrAlreadySeated = errors.New("already seated at the table")
	ErrBuyInPaid     = errors.New("buy-in already paid")
	ErrAboveMax      = errors.New("amount above the maximum buy-in")
	ErrTransient     = errors.New("not allowed on a transient table")
	ErrRefused       = errors.New("request refused")
	ErrObserver      = errors.New("not allowed for observers")
	ErrTableFull     = errors.New("table is full")
	ErrGameClosed    = errors.New("game is closed")
	ErrHandNotFound  = errors.New("hand not found")
)

const (
	msgServerFull  = "This server has too many seated players and observers."
	msgClosedLeave = "Cannot leave a closed game."
)

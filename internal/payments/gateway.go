// Package payments defines the fund transfer gateway the escrow core calls.
// The gateway must be all-or-nothing: a transfer either fully commits or
// fully fails with no partial effect, since the core's accounting invariant
// depends on it.
package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientFunds indicates the source account cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Gateway moves value between wallet accounts. Implementations must honor
// the enclosing transaction: when tx is non-nil every effect of the transfer
// must commit or roll back with it.
type Gateway interface {
	Transfer(ctx context.Context, tx *gorm.DB, from, to uuid.UUID, amount uint64, reference string) error
}

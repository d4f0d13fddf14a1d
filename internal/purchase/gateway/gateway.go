package gateway

import (
	"context"
	"time"
)

// Charge is the settlement instruction handed to a gateway.
type Charge struct {
	TransactionID string
	Amount        int64
	Currency      string
	Detail        string
}

// Receipt reports a successful settlement.
type Receipt struct {
	Reference string
	SettledAt time.Time
}

// Gateway settles charges for one payment method. Settle must respect ctx
// cancellation; the caller bounds it with the configured settlement timeout.
type Gateway interface {
	Method() string
	Settle(ctx context.Context, charge Charge) (*Receipt, error)
}

package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
)

// Simulated stands in for a real provider integration. It settles every
// charge after the configured delay, so operators can exercise the timeout
// path by tuning settlement config at runtime.
type Simulated struct {
	method string
	holder *config.SettlementConfigHolder
	clock  clock.Clock
}

func NewSimulatedMobileMoney(holder *config.SettlementConfigHolder, clk clock.Clock) *Simulated {
	return &Simulated{method: purchasedomain.MethodMobileMoney, holder: holder, clock: clk}
}

func NewSimulatedCard(holder *config.SettlementConfigHolder, clk clock.Clock) *Simulated {
	return &Simulated{method: purchasedomain.MethodCard, holder: holder, clock: clk}
}

func (g *Simulated) Method() string { return g.method }

func (g *Simulated) Settle(ctx context.Context, charge Charge) (*Receipt, error) {
	_ = charge

	delay := g.holder.Get().Delay()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &Receipt{
		Reference: uuid.NewString(),
		SettledAt: g.clock.Now(),
	}, nil
}

package replica

import (
	"context"

	"shopcraft.gg/internal/market"
	"shopcraft.gg/internal/protocol"
)

// Local is the offline/in-process mode: no live connection exists, so the
// protocol degrades to direct calls against the market running in the same
// process. No network framing is involved.
type Local struct {
	m       *market.Market
	actorID string
}

func NewLocal(m *market.Market, actorID string) *Local {
	return &Local{m: m, actorID: actorID}
}

func (l *Local) Listings(ctx context.Context) ([]protocol.Listing, error) {
	return l.m.ListActiveListings(ctx)
}

func (l *Local) Balance(ctx context.Context) (int64, error) {
	return l.m.GetBalance(ctx, l.actorID)
}

func (l *Local) Buy(ctx context.Context, listingID string) (market.Outcome, error) {
	return l.m.SubmitTransaction(ctx, l.actorID, listingID, market.KindBuy)
}

func (l *Local) Sell(ctx context.Context, listingID string) (market.Outcome, error) {
	return l.m.SubmitTransaction(ctx, l.actorID, listingID, market.KindSell)
}

func (l *Local) AdminMode(ctx context.Context) (bool, error) {
	return l.m.AdminMode(ctx)
}

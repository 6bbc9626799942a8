package events

import (
	"github.com/holiman/uint256"

	"fycore/core/types"
)

const (
	TypeAuctionStarted   = "auction.started"
	TypeAuctionCancelled = "auction.cancelled"
	TypeAuctionBought    = "auction.bought"
	TypeAuctionResolved  = "auction.resolved"
)

// AuctionStarted is emitted when an owner's position under an ilk enters
// liquidation.
type AuctionStarted struct {
	Ilk       [6]byte
	Owner     [20]byte
	StartedAt int64
}

func (AuctionStarted) EventType() string { return TypeAuctionStarted }

func (e AuctionStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionStarted,
		Attributes: map[string]string{
			"ilk":       formatID(e.Ilk[:]),
			"owner":     formatAddress(e.Owner),
			"startedAt": intToString(e.StartedAt),
		},
	}
}

// AuctionCancelled is emitted when a liquidation is cancelled after the
// position returned to solvency. Started is always zero in the payload,
// signalling the cleared record.
type AuctionCancelled struct {
	Ilk   [6]byte
	Owner [20]byte
}

func (AuctionCancelled) EventType() string { return TypeAuctionCancelled }

func (e AuctionCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionCancelled,
		Attributes: map[string]string{
			"ilk":     formatID(e.Ilk[:]),
			"owner":   formatAddress(e.Owner),
			"started": "0",
		},
	}
}

// AuctionBought is emitted after a buyer repays debt in exchange for
// collateral during an active liquidation.
type AuctionBought struct {
	Ilk        [6]byte
	Owner      [20]byte
	Buyer      [20]byte
	DebtRepaid *uint256.Int
	InkBought  *uint256.Int
}

func (AuctionBought) EventType() string { return TypeAuctionBought }

func (e AuctionBought) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionBought,
		Attributes: map[string]string{
			"ilk":        formatID(e.Ilk[:]),
			"owner":      formatAddress(e.Owner),
			"buyer":      formatAddress(e.Buyer),
			"debtRepaid": formatAmount(e.DebtRepaid),
			"inkBought":  formatAmount(e.InkBought),
		},
	}
}

// AuctionResolved is emitted when a buy drives the aggregate debt to zero
// and the liquidation record is cleared.
type AuctionResolved struct {
	Ilk   [6]byte
	Owner [20]byte
}

func (AuctionResolved) EventType() string { return TypeAuctionResolved }

func (e AuctionResolved) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionResolved,
		Attributes: map[string]string{
			"ilk":   formatID(e.Ilk[:]),
			"owner": formatAddress(e.Owner),
		},
	}
}

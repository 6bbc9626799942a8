package vault

import "github.com/holiman/uint256"

// SpotOracle is the pull-based price feed for a (base, ilk) pair. Peek
// returns the RAY-scaled price of one ilk unit in base terms as of the call.
// A false flag marks the quote invalid and hard-fails the calling operation.
type SpotOracle interface {
	Peek() (priceRay *uint256.Int, ok bool)
}

// RateOracle is the pull-based accrual feed for a base asset. Peek returns
// the RAY-scaled accrual factor as of the call.
type RateOracle interface {
	Peek() (rateRay *uint256.Int, ok bool)
}

// Action names the vault mutation a caller is asking permission for.
type Action string

const (
	ActionPour    Action = "pour"
	ActionStir    Action = "stir"
	ActionDestroy Action = "destroy"
)

// Authorizer decides whether a caller other than the vault owner may
// perform an action on a vault. The owner is always authorized; a nil
// authorizer restricts every vault to its owner.
type Authorizer interface {
	IsAuthorized(caller [20]byte, id VaultID, action Action) bool
}

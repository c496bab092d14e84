package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Transaction layer.
	ErrListingNotFound   = "E_LISTING_NOT_FOUND"
	ErrInsufficientFunds = "E_INSUFFICIENT_FUNDS"
	ErrItemNotHeld       = "E_ITEM_NOT_HELD"
	ErrCooldown          = "E_COOLDOWN"

	// Admin layer.
	ErrNoPermission = "E_NO_PERMISSION"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrListingNotFound:   {},
	ErrInsufficientFunds: {},
	ErrItemNotHeld:       {},
	ErrCooldown:          {},
	ErrNoPermission:      {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

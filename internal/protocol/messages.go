package protocol

// Listing is the wire and on-disk shape of one shop entry. Count is the
// visual stack size shown to clients; Quantity is the amount actually
// exchanged per transaction.
type Listing struct {
	GUID          string `json:"guid"`
	ItemTypeID    string `json:"itemTypeId"`
	Count         int    `json:"count"`
	BuyPrice      int64  `json:"buyPrice"`
	SellPrice     int64  `json:"sellPrice"`
	Quantity      int    `json:"quantity"`
	Seller        string `json:"seller"`
	ComponentData string `json:"componentData,omitempty"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ActorID         string     `json:"actor_id"`
	ActorName       string     `json:"actor_name,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	ActorID         string `json:"actor_id"`
	Balance         int64  `json:"balance"`
	AdminMode       bool   `json:"admin_mode"`
	Op              bool   `json:"op,omitempty"`
	CatalogVersion  uint64 `json:"catalog_version"`
}

// BUY_REQ / SELL_REQ (client -> server). ID is an opaque request ref echoed
// back on the matching response.
type TransactMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	ListingID       string `json:"listing_id"`
}

// BUY_RESP / SELL_RESP (server -> requester only)
type TransactRespMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	NewBalance      int64  `json:"new_balance"`
}

// CATALOG (server -> all clients): versioned full snapshot. Clients replace
// their local replica wholesale; there is no delta form.
type CatalogMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Version         uint64    `json:"version"`
	Listings        []Listing `json:"listings"`
}

// BALANCE (server -> one client)
type BalanceMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorID         string `json:"actor_id"`
	Balance         int64  `json:"balance"`
}

// ADMIN_MODE (server -> all clients)
type AdminModeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Enabled         bool   `json:"enabled"`
}

// ADMIN_ADD (client -> server, op only)
type AdminAddMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Listing         Listing `json:"listing"`
}

// ADMIN_REMOVE (client -> server, op only)
type AdminRemoveMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	ListingID       string `json:"listing_id"`
}

// ADMIN_SET_MODE (client -> server, op only)
type AdminSetModeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Enabled         bool   `json:"enabled"`
}

// ADMIN_RESP (server -> requester only)
type AdminRespMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref"`
	OK              bool   `json:"ok"`
	GUID            string `json:"guid,omitempty"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

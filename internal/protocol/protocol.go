package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"

	TypeBuyReq   = "BUY_REQ"
	TypeSellReq  = "SELL_REQ"
	TypeBuyResp  = "BUY_RESP"
	TypeSellResp = "SELL_RESP"

	TypeCatalog   = "CATALOG"
	TypeBalance   = "BALANCE"
	TypeAdminMode = "ADMIN_MODE"

	TypeAdminAdd     = "ADMIN_ADD"
	TypeAdminRemove  = "ADMIN_REMOVE"
	TypeAdminSetMode = "ADMIN_SET_MODE"
	TypeAdminResp    = "ADMIN_RESP"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

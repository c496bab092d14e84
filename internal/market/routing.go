package market

import (
	"encoding/json"

	"shopcraft.gg/internal/protocol"
)

// handleEnvelope routes one raw frame from a connected session. Frames that
// fail to parse are dropped with a log entry; only well-formed requests
// produce a response.
func (m *Market) handleEnvelope(env Envelope) {
	sess := m.sessions[env.SessionID]
	if sess == nil {
		return
	}
	base, err := protocol.DecodeBase(env.Raw)
	if err != nil {
		m.rejectFrame(sess, "undecodable frame")
		return
	}
	if base.ProtocolVersion != "" && base.ProtocolVersion != protocol.Version {
		m.rejectFrame(sess, "protocol version mismatch")
		return
	}

	switch base.Type {
	case protocol.TypeBuyReq, protocol.TypeSellReq:
		var req protocol.TransactMsg
		if err := json.Unmarshal(env.Raw, &req); err != nil || req.ListingID == "" {
			m.rejectFrame(sess, "malformed transact request")
			return
		}
		kind := KindBuy
		respType := protocol.TypeBuyResp
		if base.Type == protocol.TypeSellReq {
			kind = KindSell
			respType = protocol.TypeSellResp
		}
		out := m.applyTransaction(sess.ActorID, req.ListingID, kind)
		m.send(sess, mustMarshal(protocol.TransactRespMsg{
			Type:            respType,
			ProtocolVersion: protocol.Version,
			Ref:             req.ID,
			OK:              out.OK,
			Code:            out.Code,
			Message:         out.Message,
			NewBalance:      out.NewBalance,
		}))

	case protocol.TypeAdminAdd:
		var req protocol.AdminAddMsg
		if err := json.Unmarshal(env.Raw, &req); err != nil {
			m.rejectFrame(sess, "malformed admin add")
			return
		}
		var guid string
		code, msg := m.adminGate(sess)
		if code == "" {
			guid, code, msg = m.adminAdd(req.Listing)
		}
		m.adminRespond(sess, req.ID, guid, code, msg)

	case protocol.TypeAdminRemove:
		var req protocol.AdminRemoveMsg
		if err := json.Unmarshal(env.Raw, &req); err != nil || req.ListingID == "" {
			m.rejectFrame(sess, "malformed admin remove")
			return
		}
		code, msg := m.adminGate(sess)
		if code == "" {
			code, msg = m.adminRemove(req.ListingID)
		}
		m.adminRespond(sess, req.ID, "", code, msg)

	case protocol.TypeAdminSetMode:
		var req protocol.AdminSetModeMsg
		if err := json.Unmarshal(env.Raw, &req); err != nil {
			m.rejectFrame(sess, "malformed admin set mode")
			return
		}
		code, msg := m.adminGate(sess)
		if code == "" {
			m.setAdminMode(req.Enabled)
		}
		m.adminRespond(sess, req.ID, "", code, msg)

	default:
		m.rejectFrame(sess, "unexpected message type "+base.Type)
	}
}

func (m *Market) rejectFrame(sess *session, detail string) {
	m.opsLog(OpsEntry{Event: "reject_frame", SessionID: sess.ID, ActorID: sess.ActorID, Detail: detail})
}

func (m *Market) adminGate(sess *session) (code, msg string) {
	if !sess.Op {
		return protocol.ErrNoPermission, "admin capability required"
	}
	return "", ""
}

func (m *Market) adminRespond(sess *session, ref, guid, code, msg string) {
	m.send(sess, mustMarshal(protocol.AdminRespMsg{
		Type:            protocol.TypeAdminResp,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		OK:              code == "",
		GUID:            guid,
		Code:            code,
		Message:         msg,
	}))
}

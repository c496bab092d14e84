// Package ws exposes the market sync protocol over a websocket endpoint.
// The transport stays thin: it performs the HELLO/WELCOME handshake, pumps
// outbound frames, and forwards inbound frames to the market loop.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"shopcraft.gg/internal/market"
	"shopcraft.gg/internal/protocol"
)

type Server struct {
	market *market.Market
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(m *market.Market, logger *log.Logger) *Server {
	return &Server{
		market: m,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Frames are routed (and rejected) by the market loop;
		// only transport-level failures end the session here.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.market.Inbox() <- market.Envelope{SessionID: sessionID, Raw: msg}
		}

		// Cleanup.
		s.market.Leave() <- sessionID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	actorID := strings.TrimSpace(hello.ActorID)
	if actorID == "" {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "missing actor_id"), time.Now().Add(time.Second))
		return "", nil
	}

	token := ""
	if hello.Auth != nil {
		token = strings.TrimSpace(hello.Auth.Token)
	}

	out = make(chan []byte, 32)
	resp := make(chan market.JoinAck, 1)
	s.market.Join() <- market.JoinRequest{
		ActorID:   actorID,
		ActorName: strings.TrimSpace(hello.ActorName),
		Token:     token,
		Out:       out,
		Resp:      resp,
	}
	ack := <-resp
	if ack.Err != "" {
		if s.log != nil {
			s.log.Printf("ws: join rejected for %s: %s", actorID, ack.Err)
		}
		return "", nil
	}
	return ack.SessionID, out
}

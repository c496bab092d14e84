package replica

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"shopcraft.gg/internal/protocol"
)

// Client connects a replica to a live server over websocket. Outgoing
// requests carry a ref id; responses are correlated back to the caller
// while every received frame also feeds the replica cache.
type Client struct {
	conn *websocket.Conn
	rep  *Replica
	log  *log.Logger

	writeMu sync.Mutex
	nextRef atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan []byte

	done chan struct{}
}

func Dial(ctx context.Context, url, actorID, token string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ActorID:         actorID,
	}
	if token != "" {
		hello.Auth = &protocol.HelloAuth{Token: token}
	}
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	c := &Client{
		conn:    conn,
		rep:     New(actorID),
		log:     logger,
		pending: map[string]chan []byte{},
		done:    make(chan struct{}),
	}

	// The server answers HELLO with WELCOME before anything else.
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, first, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := protocol.DecodeBase(first)
	if err != nil || base.Type != protocol.TypeWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("expected WELCOME, got %q", base.Type)
	}
	c.rep.Apply(first)
	c.rep.setConnected(true)

	go c.receiveLoop()
	return c, nil
}

func (c *Client) Replica() *Replica { return c.rep }

// WaitCatalog blocks until the first catalog snapshot has been applied.
// WELCOME precedes CATALOG on join, so right after Dial the listings may
// not have landed yet.
func (c *Client) WaitCatalog(ctx context.Context) error {
	for c.rep.CatalogVersion() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return fmt.Errorf("connection closed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

func (c *Client) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return c.conn.Close()
}

// Buy submits a buy request and waits for the terminal outcome.
func (c *Client) Buy(ctx context.Context, listingID string) (protocol.TransactRespMsg, error) {
	return c.transact(ctx, protocol.TypeBuyReq, listingID)
}

// Sell submits a sell request and waits for the terminal outcome.
func (c *Client) Sell(ctx context.Context, listingID string) (protocol.TransactRespMsg, error) {
	return c.transact(ctx, protocol.TypeSellReq, listingID)
}

func (c *Client) transact(ctx context.Context, msgType, listingID string) (protocol.TransactRespMsg, error) {
	ref := c.ref()
	raw, err := c.request(ctx, ref, protocol.TransactMsg{
		Type:            msgType,
		ProtocolVersion: protocol.Version,
		ID:              ref,
		ListingID:       listingID,
	})
	if err != nil {
		return protocol.TransactRespMsg{}, err
	}
	var resp protocol.TransactRespMsg
	if err := json.Unmarshal(raw, &resp); err != nil {
		return protocol.TransactRespMsg{}, err
	}
	return resp, nil
}

func (c *Client) AdminAdd(ctx context.Context, l protocol.Listing) (protocol.AdminRespMsg, error) {
	ref := c.ref()
	return c.adminRequest(ctx, ref, protocol.AdminAddMsg{
		Type: protocol.TypeAdminAdd, ProtocolVersion: protocol.Version, ID: ref, Listing: l,
	})
}

func (c *Client) AdminRemove(ctx context.Context, listingID string) (protocol.AdminRespMsg, error) {
	ref := c.ref()
	return c.adminRequest(ctx, ref, protocol.AdminRemoveMsg{
		Type: protocol.TypeAdminRemove, ProtocolVersion: protocol.Version, ID: ref, ListingID: listingID,
	})
}

func (c *Client) AdminSetMode(ctx context.Context, enabled bool) (protocol.AdminRespMsg, error) {
	ref := c.ref()
	return c.adminRequest(ctx, ref, protocol.AdminSetModeMsg{
		Type: protocol.TypeAdminSetMode, ProtocolVersion: protocol.Version, ID: ref, Enabled: enabled,
	})
}

func (c *Client) adminRequest(ctx context.Context, ref string, msg any) (protocol.AdminRespMsg, error) {
	raw, err := c.request(ctx, ref, msg)
	if err != nil {
		return protocol.AdminRespMsg{}, err
	}
	var resp protocol.AdminRespMsg
	if err := json.Unmarshal(raw, &resp); err != nil {
		return protocol.AdminRespMsg{}, err
	}
	return resp, nil
}

func (c *Client) ref() string {
	return fmt.Sprintf("R%d", c.nextRef.Add(1))
}

func (c *Client) request(ctx context.Context, ref string, msg any) ([]byte, error) {
	ch := make(chan []byte, 1)
	c.mu.Lock()
	c.pending[ref] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, ref)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case raw := <-ch:
		return raw, nil
	case <-c.done:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) receiveLoop() {
	defer c.rep.setConnected(false)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				close(c.done)
			}
			return
		}
		c.rep.Apply(raw)
		c.deliver(raw)
	}
}

// deliver hands response frames to the waiting request, keyed by ref.
func (c *Client) deliver(raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return
	}
	var ref string
	switch base.Type {
	case protocol.TypeBuyResp, protocol.TypeSellResp:
		var m protocol.TransactRespMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		ref = m.Ref
	case protocol.TypeAdminResp:
		var m protocol.AdminRespMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		ref = m.Ref
	default:
		return
	}
	c.mu.Lock()
	ch := c.pending[ref]
	c.mu.Unlock()
	if ch != nil {
		select {
		case ch <- raw:
		default:
		}
	}
}

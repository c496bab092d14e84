// Package market is the authoritative shop state: the listing catalog, the
// balance ledger, per-actor inventories, and the transaction applier.
// All state is owned by a single loop goroutine; transports and local-mode
// callers reach it through channels only.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"shopcraft.gg/internal/items"
	"shopcraft.gg/internal/items/attrs"
	"shopcraft.gg/internal/market/feature/inventory"
	"shopcraft.gg/internal/market/feature/ledger"
	"shopcraft.gg/internal/persistence/shopfile"
	"shopcraft.gg/internal/protocol"
)

// JoinRequest attaches one client session. Out receives marshaled frames;
// the loop pushes WELCOME, CATALOG and BALANCE before answering Resp.
type JoinRequest struct {
	ActorID   string
	ActorName string
	Token     string
	Out       chan []byte
	Resp      chan JoinAck
}

type JoinAck struct {
	SessionID string
	Err       string
}

// Envelope is one raw wire frame attributed to a session. The loop routes
// it by message type; malformed frames are dropped with a log entry.
type Envelope struct {
	SessionID string
	Raw       []byte
}

// DropFunc receives items that could not be placed into a buyer's
// inventory. The host drops them into the world instead of losing them.
type DropFunc func(actorID string, st items.Stack)

type OpsLogger interface {
	WriteOp(OpsEntry) error
}

// OpsEntry is one operational log line (joins, rejects, applied
// transactions, world drops).
type OpsEntry struct {
	At        int64  `json:"at"`
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	ListingID string `json:"listing_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Balance   int64  `json:"balance,omitempty"`
}

type session struct {
	ID      string
	ActorID string
	Op      bool
	Out     chan []byte
}

type actorState struct {
	ID        string
	Inventory *inventory.SlotSet
}

type Market struct {
	cfg   Config
	log   *log.Logger
	defs  *items.Definitions
	attrs *attrs.Registry
	store *shopfile.Store

	ledger *ledger.Ledger

	listings       []protocol.Listing
	catalogVersion uint64

	adminMode bool
	cooldowns *cooldowns
	actors    map[string]*actorState
	sessions  map[string]*session

	inbox chan Envelope
	join  chan JoinRequest
	leave chan string
	cmds  chan func()
	stop  chan struct{}

	nextSessionNum atomic.Uint64

	ops  OpsLogger
	drop DropFunc
	now  func() time.Time
}

// New builds a market over an opened catalog store. The current catalog is
// loaded immediately; call Bootstrap before Run to seed a fresh world.
func New(cfg Config, defs *items.Definitions, store *shopfile.Store, logger *log.Logger) *Market {
	cfg.applyDefaults()
	if defs == nil {
		defs = items.Defaults()
	}
	m := &Market{
		cfg:      cfg,
		log:      logger,
		defs:     defs,
		attrs:    attrs.NewRegistry(defs, logger),
		store:    store,
		ledger:   ledger.New(),
		actors:   map[string]*actorState{},
		sessions: map[string]*session{},
		inbox:    make(chan Envelope, 256),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		cmds:     make(chan func(), 64),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	m.cooldowns = newCooldowns(m.cfg.CooldownWindow, func() time.Time { return m.now() })
	if store != nil {
		m.listings = normalizeListings(store.Load())
	}
	m.catalogVersion = 1
	return m
}

// SetOpsLogger, SetDropFunc and SetLedgerSink wire optional collaborators.
// They must be called before Run.
func (m *Market) SetOpsLogger(l OpsLogger)               { m.ops = l }
func (m *Market) SetDropFunc(fn DropFunc)                { m.drop = fn }
func (m *Market) SetLedgerSink(ch chan<- ledger.Entry)   { m.ledger.SetSink(ch) }
func (m *Market) SeedBalances(balances map[string]int64) { m.ledger.LoadAll(balances) }

// Bootstrap seeds the starter catalog through the store's one-shot marker.
// Call before Run.
func (m *Market) Bootstrap(seed []protocol.Listing) {
	if m.store == nil {
		return
	}
	listings, seeded := m.store.BootstrapIfEmpty(normalizeListings(seed))
	m.listings = normalizeListings(listings)
	if seeded {
		m.logf("market: seeded starter catalog (%d listings)", len(m.listings))
	}
}

func (m *Market) Inbox() chan<- Envelope   { return m.inbox }
func (m *Market) Join() chan<- JoinRequest { return m.join }
func (m *Market) Leave() chan<- string     { return m.leave }

func (m *Market) Stop() { close(m.stop) }

// Run drains the channels until the context ends. One request completes
// fully before the next begins; that serialization is what makes the
// check-then-commit sequences in the transaction applier safe.
func (m *Market) Run(ctx context.Context) error {
	var reconcileC <-chan time.Time
	if m.cfg.ReconcileEvery > 0 {
		t := time.NewTicker(m.cfg.ReconcileEvery)
		defer t.Stop()
		reconcileC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case req := <-m.join:
			m.handleJoin(req)
		case id := <-m.leave:
			m.handleLeave(id)
		case env := <-m.inbox:
			m.handleEnvelope(env)
		case fn := <-m.cmds:
			fn()
		case <-reconcileC:
			m.reconcileBalances()
		}
	}
}

func (m *Market) handleJoin(req JoinRequest) {
	ack := JoinAck{}
	defer func() {
		if req.Resp != nil {
			select {
			case req.Resp <- ack:
			default:
			}
		}
	}()

	if req.ActorID == "" {
		ack.Err = "missing actor_id"
		return
	}

	sid := fmt.Sprintf("S%d", m.nextSessionNum.Add(1))
	sess := &session{
		ID:      sid,
		ActorID: req.ActorID,
		Op:      m.isOp(req.ActorID, req.Token),
		Out:     req.Out,
	}
	m.sessions[sid] = sess
	m.actor(req.ActorID)
	ack.SessionID = sid

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sid,
		ActorID:         req.ActorID,
		Balance:         m.ledger.Get(req.ActorID),
		AdminMode:       m.adminMode,
		Op:              sess.Op,
		CatalogVersion:  m.catalogVersion,
	}
	m.send(sess, mustMarshal(welcome))
	m.send(sess, mustMarshal(m.catalogMsg()))
	m.send(sess, mustMarshal(m.balanceMsg(req.ActorID)))

	m.opsLog(OpsEntry{Event: "join", SessionID: sid, ActorID: req.ActorID, Detail: req.ActorName})
}

func (m *Market) handleLeave(sessionID string) {
	if _, ok := m.sessions[sessionID]; !ok {
		return
	}
	delete(m.sessions, sessionID)
	m.opsLog(OpsEntry{Event: "leave", SessionID: sessionID})
}

func (m *Market) isOp(actorID, token string) bool {
	for _, t := range m.cfg.OpTokens {
		if t != "" && t == token {
			return true
		}
	}
	for _, a := range m.cfg.OpActors {
		if a != "" && a == actorID {
			return true
		}
	}
	return false
}

func (m *Market) actor(actorID string) *actorState {
	a, ok := m.actors[actorID]
	if !ok {
		a = &actorState{
			ID:        actorID,
			Inventory: inventory.New(m.cfg.InventorySlots, m.defs.MaxStack),
		}
		m.actors[actorID] = a
	}
	return a
}

func (m *Market) lookup(listingID string) (protocol.Listing, bool) {
	for _, l := range m.listings {
		if l.GUID == listingID {
			return l, true
		}
	}
	return protocol.Listing{}, false
}

func (m *Market) catalogMsg() protocol.CatalogMsg {
	return protocol.CatalogMsg{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Version:         m.catalogVersion,
		Listings:        append([]protocol.Listing(nil), m.listings...),
	}
}

func (m *Market) balanceMsg(actorID string) protocol.BalanceMsg {
	return protocol.BalanceMsg{
		Type:            protocol.TypeBalance,
		ProtocolVersion: protocol.Version,
		ActorID:         actorID,
		Balance:         m.ledger.Get(actorID),
	}
}

// broadcastCatalog bumps the snapshot version and fans the full listing
// array out to every connected session.
func (m *Market) broadcastCatalog() {
	m.catalogVersion++
	b := mustMarshal(m.catalogMsg())
	for _, s := range m.sessions {
		m.send(s, b)
	}
}

func (m *Market) broadcastAdminMode() {
	b := mustMarshal(protocol.AdminModeMsg{
		Type:            protocol.TypeAdminMode,
		ProtocolVersion: protocol.Version,
		Enabled:         m.adminMode,
	})
	for _, s := range m.sessions {
		m.send(s, b)
	}
}

func (m *Market) reconcileBalances() {
	for _, s := range m.sessions {
		m.send(s, mustMarshal(m.balanceMsg(s.ActorID)))
	}
}

// send never blocks the loop; a full session queue drops the frame and the
// periodic reconciliation repairs any stale balance view.
func (m *Market) send(s *session, b []byte) {
	if s == nil || s.Out == nil {
		return
	}
	select {
	case s.Out <- b:
	default:
		m.opsLog(OpsEntry{Event: "drop_frame", SessionID: s.ID, ActorID: s.ActorID})
	}
}

func (m *Market) dropToWorld(actorID string, st items.Stack) {
	m.opsLog(OpsEntry{Event: "world_drop", ActorID: actorID, Detail: fmt.Sprintf("%dx %s", st.Count, st.Type)})
	if m.drop != nil {
		m.drop(actorID, st)
	}
}

func (m *Market) saveCatalog() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.listings); err != nil {
		m.logf("market: save catalog: %v", err)
	}
}

// do runs fn on the loop goroutine and waits for it. It is the boundary
// for local-mode (in-process) callers.
func (m *Market) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case m.cmds <- wrapped:
	case <-m.stop:
		return errors.New("market stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Market) opsLog(e OpsEntry) {
	if m.ops == nil {
		return
	}
	e.At = m.now().UnixMilli()
	if err := m.ops.WriteOp(e); err != nil {
		m.logf("market: ops log: %v", err)
	}
}

func (m *Market) logf(format string, args ...any) {
	if m.log != nil {
		m.log.Printf(format, args...)
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// normalizeListings fills derivable fields so the rest of the market can
// rely on them: quantity defaults to count (min 1), counts default to 1.
func normalizeListings(in []protocol.Listing) []protocol.Listing {
	out := make([]protocol.Listing, 0, len(in))
	for _, l := range in {
		if l.Count <= 0 {
			l.Count = 1
		}
		if l.Quantity <= 0 {
			l.Quantity = l.Count
		}
		out = append(out, l)
	}
	return out
}

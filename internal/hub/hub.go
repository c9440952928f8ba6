// Package hub holds the per-session connection registry and the broadcast
// router. A single actor goroutine owns all registry state, so joins,
// leaves, and fan-out passes for a session are serialized without locks and
// no I/O ever happens while the member set is being mutated.
package hub

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Prasanna018/code-collab-backend/internal/metrics"
)

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinCmd struct {
	baseHubCmd
	sessionID string
	conn      *websocket.Conn
	replyCh   chan joinResult
}

type joinResult struct {
	participantID string
	active        int
	err           error
}

type leaveCmd struct {
	baseHubCmd
	sessionID string
	conn      *websocket.Conn
	replyCh   chan leaveResult
}

type leaveResult struct {
	participantID string
	active        int
	wasMember     bool
}

type sendCmd struct {
	baseHubCmd
	sessionID string
	conn      *websocket.Conn
	data      []byte
}

type broadcastCmd struct {
	baseHubCmd
	sessionID string
	data      []byte
	exclude   *websocket.Conn
}

type countCmd struct {
	baseHubCmd
	sessionID string
	replyCh   chan int
}

type stopCmd struct {
	baseHubCmd
}

// --- Hub ---

type member struct {
	participantID string
	writer        *clientWriter
}

type sessionMembers map[*websocket.Conn]*member

// Hub is the process-scoped session registry and broadcast router.
// A registry entry exists exactly while at least one connection is attached:
// it is created on first join and discarded on last leave.
type Hub struct {
	cmdCh    chan hubCmd
	clock    clockwork.Clock
	sessions map[string]sessionMembers

	// onSessionEmpty runs after the last connection of a session detaches.
	onSessionEmpty func(sessionID string)
	// onEvict runs after a member is dropped for undeliverable writes, so
	// the protocol layer can announce the leave like a graceful one.
	onEvict func(sessionID, participantID string, remaining int)

	maxClientsPerSession int
	done                 chan struct{}
}

// New creates a hub and starts its actor goroutine. Both callbacks may be
// nil; they are invoked on their own goroutines and must not assume they run
// before the triggering operation returns.
func New(clock clockwork.Clock, maxClientsPerSession int, onSessionEmpty func(string), onEvict func(string, string, int)) *Hub {
	h := &Hub{
		cmdCh:                make(chan hubCmd, 256),
		clock:                clock,
		sessions:             make(map[string]sessionMembers),
		onSessionEmpty:       onSessionEmpty,
		onEvict:              onEvict,
		maxClientsPerSession: maxClientsPerSession,
		done:                 make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case joinCmd:
			h.handleJoin(c)
		case leaveCmd:
			h.handleLeave(c)
		case sendCmd:
			h.handleSend(c)
		case broadcastCmd:
			h.handleBroadcast(c)
		case countCmd:
			c.replyCh <- len(h.sessions[c.sessionID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

// newParticipantID returns an 8-character token unique within a session for
// any realistic member count.
func newParticipantID() string {
	return uuid.NewString()[:8]
}

func (h *Hub) handleJoin(c joinCmd) {
	members, exists := h.sessions[c.sessionID]
	if !exists {
		members = make(sessionMembers)
		h.sessions[c.sessionID] = members
		metrics.HubActiveSessions.Set(float64(len(h.sessions)))
	}

	if len(members) >= h.maxClientsPerSession {
		if len(members) == 0 {
			delete(h.sessions, c.sessionID)
			metrics.HubActiveSessions.Set(float64(len(h.sessions)))
		}
		slog.Warn("Rejecting client: session full", "session_id", c.sessionID, "max_clients", h.maxClientsPerSession)
		c.replyCh <- joinResult{err: fmt.Errorf("max clients per session (%d) reached", h.maxClientsPerSession)}
		return
	}

	m := &member{
		participantID: newParticipantID(),
		writer:        newClientWriter(c.conn, h.clock),
	}
	members[c.conn] = m

	metrics.HubConnectedClients.Inc()
	slog.Debug("Client joined", "session_id", c.sessionID, "participant_id", m.participantID, "active", len(members))
	c.replyCh <- joinResult{participantID: m.participantID, active: len(members)}
}

func (h *Hub) handleLeave(c leaveCmd) {
	participantID, remaining, wasMember := h.removeMember(c.sessionID, c.conn)
	c.replyCh <- leaveResult{participantID: participantID, active: remaining, wasMember: wasMember}
}

// removeMember detaches a connection from its session. Idempotent: a second
// call for the same connection reports wasMember=false and has no side
// effects. Shared by graceful leaves and slow-client eviction so both take
// the same cleanup path.
func (h *Hub) removeMember(sessionID string, conn *websocket.Conn) (string, int, bool) {
	members, exists := h.sessions[sessionID]
	if !exists {
		return "", 0, false
	}

	m, exists := members[conn]
	if !exists {
		return "", len(members), false
	}

	m.writer.stop()
	delete(members, conn)
	metrics.HubConnectedClients.Dec()

	if len(members) == 0 {
		delete(h.sessions, sessionID)
		metrics.HubActiveSessions.Set(float64(len(h.sessions)))
		if h.onSessionEmpty != nil {
			go h.onSessionEmpty(sessionID)
		}
		slog.Info("Last client disconnected", "session_id", sessionID)
	} else {
		slog.Debug("Client left", "session_id", sessionID, "participant_id", m.participantID, "remaining", len(members))
	}

	return m.participantID, len(members), true
}

// handleSend delivers a payload to a single member. Used for the init
// snapshot so it flows through the member's writer and never races a
// concurrent broadcast on the same connection.
func (h *Hub) handleSend(c sendCmd) {
	members, exists := h.sessions[c.sessionID]
	if !exists {
		return
	}
	m, exists := members[c.conn]
	if !exists {
		return
	}

	select {
	case m.writer.sendChannel <- c.data:
	default:
		h.evict(c.sessionID, c.conn)
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	members, exists := h.sessions[c.sessionID]
	if !exists {
		return
	}

	// Deliver to every other member first; mutate the member set only after
	// the pass so a dead connection cannot invalidate the iteration.
	var slow []*websocket.Conn
	for conn, m := range members {
		if conn == c.exclude {
			continue
		}
		select {
		case m.writer.sendChannel <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		h.evict(c.sessionID, conn)
	}
}

func (h *Hub) evict(sessionID string, conn *websocket.Conn) {
	participantID, remaining, wasMember := h.removeMember(sessionID, conn)
	if !wasMember {
		return
	}
	slog.Warn("Evicted slow client", "session_id", sessionID, "participant_id", participantID)
	metrics.HubSlowClientsEvicted.Inc()
	if h.onEvict != nil {
		go h.onEvict(sessionID, participantID, remaining)
	}
}

func (h *Hub) handleStop() {
	for sessionID, members := range h.sessions {
		for _, m := range members {
			m.writer.stopGraceful("server shutting down")
			metrics.HubConnectedClients.Dec()
		}
		delete(h.sessions, sessionID)
	}
	metrics.HubActiveSessions.Set(0)
}

// --- Public API ---

// Join admits a connection to a session, generating its participant
// identifier and starting its writer. Returns the identifier and the
// session's active count including the new member.
func (h *Hub) Join(sessionID string, conn *websocket.Conn) (string, int, error) {
	replyCh := make(chan joinResult, 1)
	h.cmdCh <- joinCmd{sessionID: sessionID, conn: conn, replyCh: replyCh}
	res := <-replyCh
	return res.participantID, res.active, res.err
}

// Leave detaches a connection. Idempotent; the boolean reports whether the
// connection was still a member, so callers announce user_leave exactly once.
func (h *Hub) Leave(sessionID string, conn *websocket.Conn) (string, int, bool) {
	replyCh := make(chan leaveResult, 1)
	h.cmdCh <- leaveCmd{sessionID: sessionID, conn: conn, replyCh: replyCh}
	res := <-replyCh
	return res.participantID, res.active, res.wasMember
}

// Send queues a payload for one member of a session.
func (h *Hub) Send(sessionID string, conn *websocket.Conn, data []byte) {
	h.cmdCh <- sendCmd{sessionID: sessionID, conn: conn, data: data}
}

// Broadcast queues a payload for every member of a session except exclude.
// Delivery per member is best-effort: an undeliverable member is evicted
// after the pass and never aborts delivery to the others. Messages submitted
// by a single serial source reach each live member in submission order.
func (h *Hub) Broadcast(sessionID string, data []byte, exclude *websocket.Conn) {
	h.cmdCh <- broadcastCmd{sessionID: sessionID, data: data, exclude: exclude}
}

// ActiveCount returns the number of live connections admitted to a session,
// 0 if none.
func (h *Hub) ActiveCount(sessionID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- countCmd{sessionID: sessionID, replyCh: replyCh}
	return <-replyCh
}

// Stop closes every client connection and shuts the actor down. Blocks until
// the actor goroutine has exited.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}
	<-h.done
}

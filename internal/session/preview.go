package session

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

const (
	previewWriteWait  = 10 * time.Second
	previewPingPeriod = 30 * time.Second
	previewSendBuffer = 8
)

// Preview streams re-exported markup to rendering surfaces. Subscribers are
// passive: they only receive, one document each, and a slow subscriber drops
// frames rather than backing up the editing path.
type Preview struct {
	mu   sync.RWMutex
	subs map[string]map[*previewClient]struct{} // documentID -> clients
	log  zerolog.Logger
}

func NewPreview(log zerolog.Logger) *Preview {
	return &Preview{
		subs: map[string]map[*previewClient]struct{}{},
		log:  log,
	}
}

type previewClient struct {
	conn *websocket.Conn
	send chan []byte
}

// offer hands a frame to the client without blocking. A full buffer means
// the subscriber is lagging; the frame is dropped and reports false.
func (c *previewClient) offer(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Broadcast delivers a rendered frame to every subscriber of the document.
func (p *Preview) Broadcast(documentID string, frame []byte) {
	p.mu.RLock()
	clients := make([]*previewClient, 0, len(p.subs[documentID]))
	for c := range p.subs[documentID] {
		clients = append(clients, c)
	}
	p.mu.RUnlock()

	for _, c := range clients {
		c.offer(frame)
	}
}

// Serve registers the connection as a subscriber for the document and pumps
// frames until the connection or context closes. Blocks for the lifetime of
// the subscription.
func (p *Preview) Serve(ctx context.Context, documentID string, conn *websocket.Conn, initial []byte) {
	c := &previewClient{
		conn: conn,
		send: make(chan []byte, previewSendBuffer),
	}

	p.mu.Lock()
	if p.subs[documentID] == nil {
		p.subs[documentID] = map[*previewClient]struct{}{}
	}
	p.subs[documentID][c] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.subs[documentID], c)
		if len(p.subs[documentID]) == 0 {
			delete(p.subs, documentID)
		}
		p.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	if len(initial) > 0 {
		c.offer(initial)
	}

	p.log.Info().Str("document", documentID).Msg("preview subscriber connected")

	ticker := time.NewTicker(previewPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, previewWriteWait)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				p.log.Debug().Err(err).Str("document", documentID).Msg("preview write error")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, previewWriteWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

// requestColumns are the aid_requests columns a feed may filter on.
var requestColumns = map[string]bool{"user_id": true, "status": true, "claimed_by": true}

// FeedHandler streams change events over a websocket.
type FeedHandler struct {
	feed     changefeed.Subscriber
	upgrader websocket.Upgrader
}

// NewFeedHandler builds the handler. allowedOrigins follows the CORS list;
// "*" accepts any origin.
func NewFeedHandler(feed changefeed.Subscriber, allowedOrigins []string) *FeedHandler {
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// subscription builds the caller's filter. Notifications are always scoped
// to the caller.
func subscription(sc *domain.SessionContext, r *http.Request) (changefeed.Subscription, bool) {
	q := r.URL.Query()
	switch q.Get("table") {
	case domain.TableNotifications:
		return changefeed.Subscription{Table: domain.TableNotifications, Column: "user_id", Value: sc.UserID}, true
	case domain.TableRequests:
		col := q.Get("column")
		if col == "" {
			return changefeed.Subscription{Table: domain.TableRequests}, true
		}
		if !requestColumns[col] {
			return changefeed.Subscription{}, false
		}
		return changefeed.Subscription{Table: domain.TableRequests, Column: col, Value: q.Get("value")}, true
	}
	return changefeed.Subscription{}, false
}

func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sc, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	sub, ok := subscription(sc, r)
	if !ok {
		writeError(w, http.StatusBadRequest, "table must be aid_requests or notifications")
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		slog.Debug("feed upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := h.feed.Subscribe(ctx, sub)
	defer unsubscribe()

	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("feed write failed", "user_id", sc.UserID, "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream when the client goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

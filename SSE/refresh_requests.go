package SSE

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Client is one open event stream. Admin clients receive every event,
// doctor clients only events for their own cephalograms.
type Client struct {
	Admin    bool
	DoctorID uint
	ch       chan string
}

func NewClient(scope Models.Scope) *Client {
	return &Client{Admin: scope.Admin, DoctorID: scope.DoctorID, ch: make(chan string, 16)}
}

func (c *Client) Messages() <-chan string {
	return c.ch
}

func (c *Client) wants(event Models.AnalysisEvent) bool {
	return c.Admin || c.DoctorID == event.DoctorID
}

// SSEBroadcaster manages SSE connections and fans analysis events out to them.
type SSEBroadcaster struct {
	clients map[*Client]bool
	mu      sync.Mutex
}

func NewSSEBroadcaster() *SSEBroadcaster {
	return &SSEBroadcaster{
		clients: make(map[*Client]bool),
	}
}

func (b *SSEBroadcaster) Register(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = true
}

func (b *SSEBroadcaster) Unregister(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[client] {
		delete(b.clients, client)
		close(client.ch)
	}
}

func (b *SSEBroadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish sends the event to every interested client. A client whose buffer
// is full is dropped; its handler sees the closed channel and returns.
func (b *SSEBroadcaster) Publish(event Models.AnalysisEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode analysis event")
		return
	}
	message := string(payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.ch <- message:
		default:
			delete(b.clients, client)
			close(client.ch)
		}
	}
}

var Broadcaster = NewSSEBroadcaster()

var keepAlive = 30 * time.Second

// AnalysisEvents streams status changes of cephalograms visible to the caller.
// It expects the "scope" set by the auth middleware.
func AnalysisEvents(c *gin.Context) {
	scope, ok := c.MustGet("scope").(Models.Scope)
	if !ok {
		c.JSON(500, gin.H{"error": "missing scope"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	client := NewClient(scope)
	Broadcaster.Register(client)
	defer Broadcaster.Unregister(client)

	fmt.Fprintf(c.Writer, "data: %s\n\n", "connected")
	c.Writer.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case message, open := <-client.Messages():
			if !open {
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", message)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

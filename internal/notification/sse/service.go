// Package sse provides Server-Sent Events support for live dispatch feeds.
package sse

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventCrisisReported      EventType = "crisis_reported"
	EventAgencyNotified      EventType = "agency_notified"
	EventAgencyResponded     EventType = "agency_responded"
	EventCrisisEscalated     EventType = "crisis_escalated"
	EventCrisisClosed        EventType = "crisis_closed"
	EventLocationUpdate      EventType = "location_update"
	EventAgencyStatusChanged EventType = "agency_status_changed"
)

// DashboardChannel receives every dispatch event; per-agency channels
// receive only events addressed to that agency.
const DashboardChannel = "dashboard"

// AgencyChannel names the SSE channel for one agency.
func AgencyChannel(agencyID string) string {
	return "agency:" + agencyID
}

// Event represents an SSE event payload
type Event struct {
	Type     EventType   `json:"type"`
	CrisisID uuid.UUID   `json:"crisisId,omitempty"`
	AgencyID string      `json:"agencyId,omitempty"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	channel string
	events  chan Event
}

// Service manages SSE connections and event broadcasting. Delivery is
// fire-and-forget: a slow client drops events rather than blocking the
// publisher, and disconnected clients are pruned when their handler exits.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client // channel -> clients
}

// New creates a new SSE service
func New() *Service {
	return &Service{
		clients: make(map[string][]*client),
	}
}

// addClient registers a new client connection
func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.channel] = append(s.clients[c.channel], c)
}

// removeClient unregisters a client connection
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.channel]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.channel] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.channel]) == 0 {
		delete(s.clients, c.channel)
	}
	// The event channel is never closed: a publisher may hold a snapshot of
	// the client list taken before removal, and a send on a closed channel
	// would panic inside a detached bus goroutine. The handler exits via its
	// request context and the channel is collected with the client.
}

// Publish sends an event to every client on a channel.
func (s *Service) Publish(channel string, event Event) {
	s.mu.RLock()
	clients := s.clients[channel]
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			// buffer full, drop rather than block the publisher
		}
	}
}

// Broadcast sends an event to the dashboard channel.
func (s *Service) Broadcast(event Event) {
	s.Publish(DashboardChannel, event)
}

// NotifyAgency sends an event to one agency's channel.
func (s *Service) NotifyAgency(agencyID string, event Event) {
	event.AgencyID = agencyID
	s.Publish(AgencyChannel(agencyID), event)
}

// ClientCount returns the number of connections on a channel.
func (s *Service) ClientCount(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[channel])
}

// ConnectedAgencies counts agency channels with at least one live stream.
func (s *Service) ConnectedAgencies() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for channel, clients := range s.clients {
		if strings.HasPrefix(channel, "agency:") && len(clients) > 0 {
			count++
		}
	}
	return count
}

// Handler returns a Gin handler streaming one channel. getChannel resolves
// the channel from the request (dashboard, or the caller's agency feed).
func (s *Service) Handler(getChannel func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := getChannel(c)

		// Set SSE headers
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			channel: channel,
			events:  make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"channel": channel})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event := <-cl.events:
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close drops every registered client. Handlers notice through their
// request contexts when the server shuts down.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = make(map[string][]*client)
}

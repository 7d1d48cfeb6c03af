// internal/handler/websocket_types.go
package handler

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pos-service/internal/model"
)

// Subscription topics. A client without subscriptions receives every topic.
const (
	TopicStatus = "status"
	TopicJobs   = "jobs"
	TopicLink   = "link"
)

// Client represents a WebSocket client
type Client struct {
	ID            string          `json:"id"`
	Connection    *websocket.Conn `json:"-"`
	Send          chan []byte     `json:"-"`
	UserAgent     string          `json:"user_agent"`
	RemoteAddr    string          `json:"remote_addr"`
	ConnectedAt   time.Time       `json:"connected_at"`
	Subscriptions map[string]bool `json:"subscriptions,omitempty"`
	mutex         sync.RWMutex

	sendMutex sync.Mutex
	closed    bool
}

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Enqueue hands a message to the write pump without blocking
func (c *Client) Enqueue(message []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if c.closed {
		return errClientClosed
	}
	select {
	case c.Send <- message:
		return nil
	default:
		return errSendBufferFull
	}
}

// closeSend closes Send once. Later messages are dropped.
func (c *Client) closeSend() {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Subscribe adds a topic
func (c *Client) Subscribe(topic string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.Subscriptions == nil {
		c.Subscriptions = make(map[string]bool)
	}
	c.Subscriptions[topic] = true
}

// Unsubscribe removes a topic
func (c *Client) Unsubscribe(topic string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.Subscriptions, topic)
}

// Wants reports whether the client receives topic
func (c *Client) Wants(topic string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.Subscriptions) == 0 || c.Subscriptions[topic]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// TopicFor returns the subscription topic of an event
func TopicFor(eventType model.EventType) string {
	switch eventType {
	case model.EventPrintCompleted, model.EventPrintFailed:
		return TopicJobs
	case model.EventLinkError:
		return TopicLink
	default:
		return TopicStatus
	}
}

// ConnectionManager manages WebSocket connections
type ConnectionManager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	manager := &ConnectionManager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	go manager.run()
	return manager
}

// run starts the connection manager
func (cm *ConnectionManager) run() {
	for {
		select {
		case client := <-cm.register:
			cm.mutex.Lock()
			cm.clients[client.ID] = client
			cm.mutex.Unlock()

		case client := <-cm.unregister:
			cm.mutex.Lock()
			if _, ok := cm.clients[client.ID]; ok {
				delete(cm.clients, client.ID)
				client.closeSend()
			}
			cm.mutex.Unlock()

		case <-cm.done:
			cm.mutex.Lock()
			for id, client := range cm.clients {
				delete(cm.clients, id)
				client.closeSend()
			}
			cm.mutex.Unlock()
			return
		}
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	select {
	case cm.register <- client:
	case <-cm.done:
	}
}

// Unregister unregisters a client
func (cm *ConnectionManager) Unregister(client *Client) {
	select {
	case cm.unregister <- client:
	case <-cm.done:
	}
}

// Close disconnects every client
func (cm *ConnectionManager) Close() {
	cm.closeOnce.Do(func() { close(cm.done) })
}

// GetTopicClients returns the clients receiving topic
func (cm *ConnectionManager) GetTopicClients(topic string) []*Client {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var clients []*Client
	for _, client := range cm.clients {
		if client.Wants(topic) {
			clients = append(clients, client)
		}
	}
	return clients
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByTopic:          make(map[string]int),
	}

	for _, client := range cm.clients {
		for _, topic := range []string{TopicStatus, TopicJobs, TopicLink} {
			if client.Wants(topic) {
				stats.ByTopic[topic]++
			}
		}
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByTopic          map[string]int `json:"by_topic"`
}

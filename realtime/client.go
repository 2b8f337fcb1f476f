package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Client is a hub connection backed by a buffered channel, drained by an
// SSE stream handler. Send never blocks: when the buffer is full the event
// is dropped and Send reports false.
type Client struct {
	id     string
	userID uint
	events chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient allocates a connection for the given user with the given event
// buffer size. A size of 0 gets a sane default.
func NewClient(userID uint, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// ID implements Conn.
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated owner of this connection.
func (c *Client) UserID() uint { return c.userID }

// Events exposes the receive side for the stream handler.
func (c *Client) Events() <-chan Event { return c.events }

// Done is closed when the connection is shut down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Send implements Conn. It drops the event when the client is closed or its
// buffer is full.
func (c *Client) Send(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Close implements Conn.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/spexcher/Pictionary/game"
)

const sendBufferSize = 256

// client is one websocket connection. roomID is guarded by Hub.mu.
type client struct {
	id       string
	identity Identity
	socket   Socket
	outbox   chan []byte
	done     chan struct{}
	closing  sync.Once
	closeErr string

	guesses *rate.Limiter
	draws   *rate.Limiter

	roomID string
	log    zerolog.Logger
}

func newClient(id string, identity Identity, socket Socket, limits Limits, log zerolog.Logger) *client {
	return &client{
		id:       id,
		identity: identity,
		socket:   socket,
		outbox:   make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		guesses:  rate.NewLimiter(limits.GuessRate, limits.GuessBurst),
		draws:    rate.NewLimiter(limits.DrawRate, limits.DrawBurst),
		log:      log.With().Str("conn", id).Str("player", identity.ID).Logger(),
	}
}

// send never blocks. A client that cannot keep up is disconnected.
func (c *client) send(b []byte) {
	select {
	case <-c.done:
	case c.outbox <- b:
	default:
		c.log.Warn().Msg("send buffer full, closing connection")
		c.shutdown("slow-consumer")
	}
}

func (c *client) sendEvent(e game.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		c.log.Error().Err(err).Str("event", e.Type).Msg("could not encode event")
		return
	}
	c.send(b)
}

func (c *client) shutdown(errCode string) {
	c.closing.Do(func() {
		c.closeErr = errCode
		close(c.done)
	})
}

// writePump owns every write to the socket, including the final close.
func (c *client) writePump(pingEvery time.Duration) {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		c.socket.Close(c.closeErr)
	}()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.outbox:
			if err := c.socket.Write(b); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				c.shutdown("")
				return
			}
		case <-ping.C:
			if err := c.socket.Ping(); err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				c.shutdown("")
				return
			}
		}
	}
}

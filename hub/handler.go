package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/spexcher/Pictionary/drawing"
	"github.com/spexcher/Pictionary/game"
)

var ErrBadRequest = errors.New("bad-request")

// Engine is the part of game.Engine the router drives.
type Engine interface {
	CreateRoom(ctx context.Context, req game.CreateRoomRequest) (game.JoinResult, error)
	JoinRoom(ctx context.Context, req game.JoinRoomRequest) (game.JoinResult, error)
	StartGame(ctx context.Context, roomID, requesterID string) error
	LeaveRoom(ctx context.Context, roomID, playerID string) error
	KickPlayer(ctx context.Context, roomID, requesterID, targetID string) error
	UpdateSettings(ctx context.Context, roomID, requesterID string, settings game.GameSettings) (game.Room, error)
	Reconnect(ctx context.Context, req game.ReconnectRequest) (game.ReconnectResult, error)
	RelayDrawCommand(ctx context.Context, roomID, senderID string, cmd drawing.Command) error
	SubmitGuess(ctx context.Context, roomID, senderID, text string) (game.GuessOutcome, error)
}

type Limits struct {
	GuessRate  rate.Limit
	GuessBurst int
	DrawRate   rate.Limit
	DrawBurst  int
}

type Options struct {
	Limits         Limits
	PingInterval   time.Duration
	IntentTimeout  time.Duration
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		Limits: Limits{
			GuessRate:  3,
			GuessBurst: 5,
			DrawRate:   60,
			DrawBurst:  120,
		},
		PingInterval:  30 * time.Second,
		IntentTimeout: 5 * time.Second,
	}
}

type Handler struct {
	engine   Engine
	hub      *Hub
	verifier TokenVerifier
	opts     Options
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler builds the websocket endpoint. verifier may be nil, in which case
// every connection is anonymous.
func NewHandler(engine Engine, hub *Hub, verifier TokenVerifier, opts Options, log zerolog.Logger) *Handler {
	h := &Handler{
		engine:   engine,
		hub:      hub,
		verifier: verifier,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.With().Str("component", "router").Logger(),
	}
	if len(opts.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(opts.AllowedOrigins, origin)
		}
	}
	return h
}

func (h *Handler) ServeWS(ctx *gin.Context) {
	identity := ResolveIdentity(ctx.Request, h.verifier)

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	h.Serve(NewWebsocketConnection(conn), identity)
}

// Serve runs the read pump of one connection until it drops. The player
// leaves their room only when this was their last connection in it.
func (h *Handler) Serve(socket Socket, identity Identity) {
	c := newClient(uuid.NewString(), identity, socket, h.opts.Limits, h.log)
	h.hub.register(c)
	go c.writePump(h.opts.PingInterval)
	defer h.disconnect(c)

	c.log.Debug().Bool("authenticated", identity.Authenticated).Msg("connected")
	for {
		messageType, data, err := socket.Read()
		if err != nil {
			c.log.Debug().Err(err).Msg("read failed")
			return
		}
		h.dispatch(c, messageType, data)
	}
}

func (h *Handler) disconnect(c *client) {
	c.shutdown("")
	roomID, last := h.hub.unregister(c)
	if !last {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.IntentTimeout)
	defer cancel()
	if err := h.engine.LeaveRoom(ctx, roomID, c.identity.ID); err != nil {
		c.log.Error().Err(err).Str("room", roomID).Msg("could not leave room on disconnect")
	}
}

func (h *Handler) dispatch(c *client, messageType int, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.IntentTimeout)
	defer cancel()

	if messageType == websocket.BinaryMessage {
		var cmd drawing.Command
		if err := cmd.UnmarshalBinary(data); err != nil {
			c.log.Debug().Err(err).Msg("dropping undecodable binary frame")
			return
		}
		h.relay(ctx, c, cmd)
		return
	}

	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, "", ErrBadRequest)
		return
	}

	var err error
	switch msg.Type {
	case IntentCreateRoom:
		err = h.createRoom(ctx, c, msg.Data)
	case IntentJoinRoom:
		err = h.joinRoom(ctx, c, msg.Data)
	case IntentPlayerReconnect:
		err = h.reconnect(ctx, c, msg.Data)
	case IntentStartGame:
		err = h.inRoom(c, func(roomID string) error {
			return h.engine.StartGame(ctx, roomID, c.identity.ID)
		})
	case IntentLeaveRoom:
		if roomID := h.hub.roomOf(c); roomID != "" {
			err = h.engine.LeaveRoom(ctx, roomID, c.identity.ID)
		}
	case IntentUpdateSettings:
		err = h.updateSettings(ctx, c, msg.Data)
	case IntentKickPlayer:
		err = h.kickPlayer(ctx, c, msg.Data)
	case IntentDrawCommand:
		var cmd drawing.Command
		if uerr := cmd.UnmarshalJSON(msg.Data); uerr != nil {
			c.log.Debug().Err(uerr).Msg("dropping malformed draw command")
			return
		}
		h.relay(ctx, c, cmd)
	case IntentMakeGuess:
		err = h.makeGuess(ctx, c, msg.Data)
	default:
		err = ErrBadRequest
	}

	h.reply(c, msg.Type, err)
}

// reply reports a failed intent to the connection that sent it.
func (h *Handler) reply(c *client, intent string, err error) {
	if err == nil {
		return
	}

	ev := game.ErrorEvent(err)
	switch {
	case errors.Is(err, ErrBadRequest):
		ev.Data = game.ErrorPayload{Kind: "bad-request", Message: "Malformed message"}
		c.log.Debug().Str("intent", intent).Msg("bad request")
	case errors.Is(err, game.ErrStoreFailure), errors.Is(err, game.ErrRoomCreation):
		c.log.Error().Err(err).Str("intent", intent).Msg("intent failed")
	default:
		c.log.Debug().Err(err).Str("intent", intent).Msg("intent rejected")
	}
	c.sendEvent(ev)
}

func (h *Handler) inRoom(c *client, fn func(roomID string) error) error {
	roomID := h.hub.roomOf(c)
	if roomID == "" {
		return game.ErrNotFound
	}
	return fn(roomID)
}

// switchRoom takes the player out of the room the connection was bound to
// before it enters another one.
func (h *Handler) switchRoom(ctx context.Context, c *client, next string) {
	prev := h.hub.roomOf(c)
	if prev == "" || prev == next {
		return
	}
	if err := h.engine.LeaveRoom(ctx, prev, c.identity.ID); err != nil {
		c.log.Warn().Err(err).Str("room", prev).Msg("could not leave previous room")
	}
}

func (h *Handler) createRoom(ctx context.Context, c *client, data json.RawMessage) error {
	var in createRoomIntent
	if err := decode(data, &in); err != nil {
		return err
	}
	h.switchRoom(ctx, c, "")

	res, err := h.engine.CreateRoom(ctx, game.CreateRoomRequest{
		PlayerID:    c.identity.ID,
		DisplayName: in.PlayerName,
		Username:    c.identity.Username,
		RoomName:    in.RoomName,
		Settings:    in.Settings.settings(),
		MaxPlayers:  in.MaxPlayers,
		IsPrivate:   in.IsPrivate,
		Password:    in.Password,
		ConnID:      c.id,
	})
	if err != nil {
		return err
	}
	c.sendEvent(game.Event{Type: game.EventRoomCreated, Data: res})
	return nil
}

func (h *Handler) joinRoom(ctx context.Context, c *client, data json.RawMessage) error {
	var in joinRoomIntent
	if err := decode(data, &in); err != nil {
		return err
	}
	if in.RoomID == "" {
		return ErrBadRequest
	}
	h.switchRoom(ctx, c, in.RoomID)

	res, err := h.engine.JoinRoom(ctx, game.JoinRoomRequest{
		RoomID:       in.RoomID,
		PlayerID:     c.identity.ID,
		DisplayName:  in.PlayerName,
		Username:     c.identity.Username,
		Password:     in.Password,
		SessionToken: in.SessionToken,
		ConnID:       c.id,
	})
	if err != nil {
		return err
	}
	c.sendEvent(game.Event{Type: game.EventJoinedRoom, Data: res})
	return nil
}

func (h *Handler) reconnect(ctx context.Context, c *client, data json.RawMessage) error {
	var in reconnectIntent
	if err := decode(data, &in); err != nil {
		return err
	}

	res, err := h.engine.Reconnect(ctx, game.ReconnectRequest{
		SessionToken: in.SessionToken,
		PlayerID:     c.identity.ID,
		ConnID:       c.id,
	})
	if err != nil {
		return err
	}
	c.sendEvent(game.Event{Type: game.EventReconnected, Data: res})
	return nil
}

func (h *Handler) updateSettings(ctx context.Context, c *client, data json.RawMessage) error {
	var in updateSettingsIntent
	if err := decode(data, &in); err != nil {
		return err
	}
	return h.inRoom(c, func(roomID string) error {
		_, err := h.engine.UpdateSettings(ctx, roomID, c.identity.ID, in.settings())
		return err
	})
}

func (h *Handler) kickPlayer(ctx context.Context, c *client, data json.RawMessage) error {
	var in kickPlayerIntent
	if err := decode(data, &in); err != nil {
		return err
	}
	return h.inRoom(c, func(roomID string) error {
		return h.engine.KickPlayer(ctx, roomID, c.identity.ID, in.PlayerID)
	})
}

// Guesses and strokes outside a room, or over the rate limit, vanish quietly.

func (h *Handler) makeGuess(ctx context.Context, c *client, data json.RawMessage) error {
	text, err := decodeGuess(data)
	if err != nil {
		return err
	}
	roomID := h.hub.roomOf(c)
	if roomID == "" || !c.guesses.Allow() {
		return nil
	}
	_, err = h.engine.SubmitGuess(ctx, roomID, c.identity.ID, text)
	return err
}

func (h *Handler) relay(ctx context.Context, c *client, cmd drawing.Command) {
	roomID := h.hub.roomOf(c)
	if roomID == "" || !c.draws.Allow() {
		return
	}
	if err := h.engine.RelayDrawCommand(ctx, roomID, c.identity.ID, cmd); err != nil {
		h.reply(c, IntentDrawCommand, err)
	}
}

package game

import "github.com/spexcher/Pictionary/drawing"

const (
	EventRoomCreated       = "roomCreated"
	EventJoinedRoom        = "joinedRoom"
	EventRoomUpdate        = "roomUpdate"
	EventRoundStart        = "roundStart"
	EventYourWord          = "yourWord"
	EventGameState         = "gameState"
	EventDrawingSync       = "drawingSync"
	EventGuessResult       = "guessResult"
	EventCorrectGuess      = "correctGuess"
	EventNextRound         = "nextRound"
	EventGameEnd           = "gameEnd"
	EventPlayerDisconnect  = "playerDisconnect"
	EventPlayerReconnected = "playerReconnected"
	EventReconnected       = "reconnected"
	EventKicked            = "kicked"
	EventError             = "error"
)

// Event is one outbound message, serialized as {"type": ..., "data": ...}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type RoundStartPayload struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	DrawerName  string `json:"drawer"`
	DrawerID    string `json:"drawerId"`
	TimeLeft    int    `json:"timeLeft"`
	Difficulty  string `json:"difficulty"`
}

type YourWordPayload struct {
	Word     string `json:"word"`
	Category string `json:"category"`
}

type GuessResultPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Correct    bool   `json:"correct"`
}

type CorrectGuessPayload struct {
	Word   string `json:"word"`
	Points int    `json:"points"`
}

type NextRoundPayload struct {
	NextRound int `json:"nextRound"`
}

type GameEndPayload struct {
	Results []Player `json:"results"`
	Winner  Player   `json:"winner"`
}

type PlayerNoticePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type KickedPayload struct {
	RoomID string `json:"roomId"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// JoinResult answers CreateRoom and JoinRoom. A join during a running round
// also carries the round and its strokes so the canvas can be rebuilt.
type JoinResult struct {
	Room           Room              `json:"room"`
	SessionToken   string            `json:"sessionToken"`
	SelfID         string            `json:"selfId"`
	RoundState     *RoundState       `json:"gameState,omitempty"`
	DrawingHistory []drawing.Command `json:"drawingHistory,omitempty"`
}

// ReconnectResult is everything a returning client needs to redraw the game.
// Word is only set for the current drawer.
type ReconnectResult struct {
	Room           Room              `json:"room"`
	RoundState     *RoundState       `json:"gameState"`
	DrawingHistory []drawing.Command `json:"drawingHistory"`
	CurrentWord    string            `json:"currentWord,omitempty"`
	SelfID         string            `json:"selfId"`
}

type GuessOutcome struct {
	Accepted bool `json:"accepted"`
	Correct  bool `json:"correct"`
	Points   int  `json:"points"`
}

func ErrorEvent(err error) Event {
	return Event{Type: EventError, Data: ErrorPayload{Kind: ErrorKind(err), Message: errorMessage(err)}}
}

func errorMessage(err error) string {
	switch ErrorKind(err) {
	case "not-found":
		return "Room not found"
	case "forbidden":
		return "Not allowed"
	case "room-full":
		return "Room is full"
	case "insufficient-players":
		return "Not enough players to start the game"
	case "invalid-settings":
		return "Rounds must be a multiple of the player count"
	case "invalid-session":
		return "Invalid session token"
	case "store-failure":
		return "Something went wrong, try again"
	default:
		return "Unknown error"
	}
}

package game

import (
	"strings"
	"unicode/utf8"

	"github.com/spexcher/Pictionary/domain"
)

const (
	DefaultRoomName  = "Pictionary Room"
	DefaultRounds    = 3
	maxNameLength    = 20
	fallbackUsername = "Guest"
)

type GameSettings struct {
	Rounds          int               `json:"rounds"`
	TimerMultiplier float64           `json:"timerMultiplier"`
	WordDifficulty  domain.Difficulty `json:"wordDifficulty"`
}

type Player struct {
	ID           string `json:"id"`
	DisplayName  string `json:"name"`
	Score        int    `json:"score"`
	IsHost       bool   `json:"isHost"`
	IsDrawing    bool   `json:"isDrawing"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// Room is the persisted state of one room. Timestamps are unix milliseconds.
type Room struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Players           []Player     `json:"players"`
	MaxPlayers        int          `json:"maxPlayers"`
	IsPrivate         bool         `json:"isPrivate"`
	PasswordHash      string       `json:"passwordHash,omitempty"`
	Settings          GameSettings `json:"gameSettings"`
	CurrentRound      int          `json:"currentRound,omitempty"`
	CurrentDrawerID   string       `json:"currentDrawer,omitempty"`
	CurrentWord       string       `json:"currentWord,omitempty"`
	GameStarted       bool         `json:"gameStarted"`
	GameStartedAt     int64        `json:"gameStartedAt,omitempty"`
	RoundEndTimestamp int64        `json:"roundEndTime,omitempty"`
}

type Guess struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Text          string `json:"guess,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"points"`
}

type RoundState struct {
	RoomID              string            `json:"roomId"`
	Round               int               `json:"round"`
	DrawerID            string            `json:"drawerId"`
	Word                string            `json:"word,omitempty"`
	Category            string            `json:"category,omitempty"`
	Difficulty          domain.Difficulty `json:"difficulty"`
	Duration            int               `json:"duration"`
	TimeLeftSeconds     int               `json:"timeLeft"`
	RoundStartTimestamp int64             `json:"roundStartTime"`
	Guesses             []Guess           `json:"guesses"`
}

type session struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"userId"`
}

func (r *Room) playerIndex(id string) int {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) player(id string) (*Player, bool) {
	i := r.playerIndex(id)
	if i < 0 {
		return nil, false
	}
	return &r.Players[i], true
}

func (r *Room) isHost(id string) bool {
	p, ok := r.player(id)
	return ok && p.IsHost
}

// roundActive reports whether a drawer currently holds a word.
func (r *Room) roundActive() bool {
	return r.GameStarted && r.CurrentWord != "" && r.CurrentDrawerID != ""
}

func (r *Room) clearRound() {
	for i := range r.Players {
		r.Players[i].IsDrawing = false
	}
	r.CurrentWord = ""
	r.CurrentDrawerID = ""
	r.RoundEndTimestamp = 0
}

// removePlayer drops the player and hands the host role to the first
// remaining player when needed.
func (r *Room) removePlayer(id string) (Player, bool) {
	i := r.playerIndex(id)
	if i < 0 {
		return Player{}, false
	}
	gone := r.Players[i]
	r.Players = append(r.Players[:i], r.Players[i+1:]...)
	if gone.IsHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}
	return gone, true
}

// Public is the view of the room broadcast to clients.
func (r Room) Public() Room {
	out := r
	out.PasswordHash = ""
	out.CurrentWord = ""
	out.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.SessionToken = ""
		out.Players[i] = p
	}
	return out
}

// Public strips the secret word and every guess text.
func (s RoundState) Public() RoundState {
	out := s
	out.Word = ""
	out.Category = ""
	out.Guesses = make([]Guess, len(s.Guesses))
	for i, g := range s.Guesses {
		g.Text = ""
		out.Guesses[i] = g
	}
	return out
}

func (s *RoundState) hasCorrectGuess(playerID string) bool {
	for _, g := range s.Guesses {
		if g.PlayerID == playerID && g.Correct {
			return true
		}
	}
	return false
}

func normalizeName(name, fallback string) string {
	for _, candidate := range []string{name, fallback} {
		n := strings.TrimSpace(candidate)
		if utf8.RuneCountInString(n) > maxNameLength {
			n = strings.TrimSpace(string([]rune(n)[:maxNameLength]))
		}
		if n != "" {
			return n
		}
	}
	return fallbackUsername
}

func guessMatches(guess, word string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}

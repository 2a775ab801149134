package game

import "errors"

var (
	ErrNotFound            = errors.New("not-found")
	ErrForbidden           = errors.New("forbidden")
	ErrRoomFull            = errors.New("room-full")
	ErrInsufficientPlayers = errors.New("insufficient-players")
	ErrInvalidSettings     = errors.New("invalid-settings")
	ErrInvalidSession      = errors.New("invalid-session")
	ErrStoreFailure        = errors.New("store-failure")
	ErrRoomCreation        = errors.New("room-creation-failed")
)

// ErrorKind maps an engine error onto the kind reported to clients.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRoomFull):
		return "room-full"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient-players"
	case errors.Is(err, ErrInvalidSettings):
		return "invalid-settings"
	case errors.Is(err, ErrInvalidSession):
		return "invalid-session"
	case errors.Is(err, ErrStoreFailure), errors.Is(err, ErrRoomCreation):
		return "store-failure"
	default:
		return "unknown"
	}
}

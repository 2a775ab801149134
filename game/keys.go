package game

import "strconv"

func roomKey(roomID string) string { return "room:" + roomID }

func roundKey(roomID string) string { return "game:" + roomID }

func strokeKey(roomID string, round int) string {
	return "drawing:" + roomID + ":" + strconv.Itoa(round)
}

func sessionKey(token string) string { return "session:" + token }

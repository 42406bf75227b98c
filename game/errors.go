package game

import "errors"

var (
	ErrAlreadyInRoom      = errors.New("already in a room")
	ErrRoomFull           = errors.New("room full")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrGameAlreadyStarted = errors.New("game already started")
)

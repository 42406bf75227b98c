package game

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnauthenticatedStr = "unauthenticated"
	ErrUnknownErrorStr    = "unknown-error"
)

type GameHandler struct {
	lobby LobbyService
}

func NewGameHandler(lobby LobbyService) *GameHandler {
	return &GameHandler{lobby: lobby}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// JoinGameHandler upgrades the connection and joins the caller to the room
// from the path. Cosmetics ride on query parameters because an upgrade
// request has no body.
func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	name := ctx.GetString("name")

	if id == "" || name == "" {
		log.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("identity missing from context, what is the middleware doing?")
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		ctx.Abort()
		return
	}

	roomId := ctx.Param("roomid")
	if roomId == "" {
		ctx.String(http.StatusBadRequest, "missing-room-id")
		ctx.Abort()
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	socketConn := NewWebsocketConnection(conn)
	sess := newSession(socketConn, h.lobby)
	player := NewPlayer(id, name, ctx.Query("color"), ctx.Query("hat"), sess)
	sess.bind(player)

	if err := h.lobby.Join(ctx.Request.Context(), roomId, player); err != nil {
		if errors.Is(err, ErrRoomFull) {
			if data := MakePacketRoomFull(); data != nil {
				socketConn.Write(data)
			}
		}
		socketConn.Close(err.Error())
		return
	}

	go sess.WritePump()
	go sess.ReadPump()
}

func (h *GameHandler) GetRoomsHandler(ctx *gin.Context) {
	rooms := h.lobby.ListRooms(ctx.Request.Context())
	if rooms == nil {
		ctx.String(http.StatusInternalServerError, ErrUnknownErrorStr)
		ctx.Abort()
		return
	}
	ctx.JSON(http.StatusOK, rooms)
}

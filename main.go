package main

import (
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gato2fraises/among-us-io/auth"
	"github.com/gato2fraises/among-us-io/config"
	"github.com/gato2fraises/among-us-io/game"
	"github.com/gato2fraises/among-us-io/logger"
	"github.com/gato2fraises/among-us-io/stats"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup(false)
		log.Fatal().Err(err).Msg("configuration error")
	}

	logger.Setup(cfg.Debug)

	tokenAge := time.Hour * 24 * 7 // 7 days
	tokenManager := auth.NewJWTManager(cfg.JWTKey, tokenAge)
	guestHandler := auth.NewGuestHandler(tokenManager, tokenAge)

	statsStore := stats.NewStore()
	statsHandler := stats.NewStatsHandler(statsStore)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	lobby := game.NewLobby(
		game.DefaultSettings(),
		rng,
		game.NewSystemClock(),
		game.NewIdGen(),
		game.NewTickerGen(),
		statsStore,
	)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby)

	r := CreateServer(cfg.AllowedOrigins)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/guest", guestHandler.GuestSessionHandler)
	}

	{
		gameGroup := r.Group("/game")
		gameGroup.Use(guestHandler.RequireAuthMiddleware())

		gameGroup.GET("/join/:roomid", gameHandler.JoinGameHandler)
		gameGroup.GET("/rooms", gameHandler.GetRoomsHandler)
	}

	{
		statsGroup := r.Group("/stats")
		statsGroup.GET("/leaderboard", statsHandler.LeaderboardHandler)
	}

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/jcouture/go-gameroom/internal/config"
	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/server"
	"github.com/jcouture/go-gameroom/internal/stats"
	"github.com/teris-io/shortid"
)

type GameRoomApp struct {
	log            *log.Logger
	db             database.GameRoomRepository
	mux            *http.Server
	cs             *server.GameServer
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
	sid            *shortid.Shortid
}

func NewGameRoomApp(mux *http.ServeMux, logger *log.Logger, cs *server.GameServer, db database.GameRoomRepository, sp stats.StatsProvider, cfg *config.Config) (*GameRoomApp, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		return nil, fmt.Errorf("init shortid: %w", err)
	}

	s := &GameRoomApp{
		log:            logger,
		db:             db,
		cs:             cs,
		stats:          sp,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		sid:            sid,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))

	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("GET /api/rooms", s.authMiddleware(s.getRoom))
	mux.Handle("DELETE /api/rooms", s.authMiddleware(s.retireRoom))
	mux.Handle("GET /api/rooms/mine", s.authMiddleware(s.getUsersRooms))
	mux.Handle("POST /api/rooms/kick", s.authMiddleware(s.kick))
	mux.Handle("POST /api/rooms/ban", s.authMiddleware(s.ban))
	mux.Handle("POST /api/rooms/unban", s.authMiddleware(s.unban))

	mux.Handle("POST /api/invitations", s.authMiddleware(s.invite))
	mux.Handle("GET /api/invitations", s.authMiddleware(s.getInvitations))
	mux.Handle("POST /api/invitations/accept", s.authMiddleware(s.acceptInvitation))
	mux.Handle("POST /api/invitations/decline", s.authMiddleware(s.declineInvitation))

	mux.Handle("POST /api/join-requests", s.authMiddleware(s.requestJoin))
	mux.Handle("GET /api/join-requests", s.authMiddleware(s.getJoinRequests))
	mux.Handle("POST /api/join-requests/approve", s.authMiddleware(s.approveJoinRequest))
	mux.Handle("POST /api/join-requests/deny", s.authMiddleware(s.denyJoinRequest))

	mux.Handle("POST /api/players", s.authMiddleware(s.createPlayer))
	mux.Handle("GET /api/players", s.authMiddleware(s.getPlayers))
	mux.Handle("DELETE /api/players", s.authMiddleware(s.deletePlayer))

	mux.Handle("GET /api/games", s.authMiddleware(s.getGames))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: s.errorHandler(h),
	}

	s.mux = srv
	return s, nil
}

func (s *GameRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *GameRoomApp) generateJoinCode() (string, error) {
	return s.sid.Generate()
}

func (s *GameRoomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *GameRoomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"brawler/models"
	"brawler/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The frontend is served from a different origin
		return true
	},
}

// Server wires the HTTP routes and websocket endpoint
type Server struct {
	hub         *Hub
	arena       *service.Arena
	roster      service.RosterService
	submissions service.SubmissionService
}

// NewServer creates the web server
func NewServer(hub *Hub, arena *service.Arena, roster service.RosterService, submissions service.SubmissionService) *Server {
	return &Server{
		hub:         hub,
		arena:       arena,
		roster:      roster,
		submissions: submissions,
	}
}

// Router builds the chi route tree
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/card", s.handleCard)
	r.Get("/roster", s.handleRoster)
	r.Get("/history", s.handleHistory)
	r.Get("/ws", s.handleWs)

	return r
}

// rosterView is the public projection of a fighter
type rosterView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Alignment   string   `json:"alignment"`
	Popularity  int      `json:"popularity"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	Titles      []string `json:"titles"`
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.arena.Card())
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	fighters, err := s.roster.Roster(r.Context(), pageParam(r))
	if err != nil {
		log.WithError(err).Error("Failed to load roster")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]rosterView, 0, len(fighters))
	for _, f := range fighters {
		views = append(views, rosterView{
			ID:          f.ID,
			Name:        f.Name,
			Image:       f.ImageFile,
			Description: f.Description,
			Alignment:   f.Alignment,
			Popularity:  f.Popularity,
			Wins:        f.Wins,
			Losses:      f.Losses,
			Titles:      f.Titles,
		})
	}
	writeJSON(w, views)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.roster.History(r.Context(), pageParam(r))
	if err != nil {
		log.WithError(err).Error("Failed to load match history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.MatchRecord{}
	}
	writeJSON(w, records)
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade websocket connection")
		return
	}

	client := &Client{
		hub:         s.hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		arena:       s.arena,
		submissions: s.submissions,
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to write response")
	}
}

// Package api exposes the read-only debug and listing surface over HTTP.
// Handlers only query the registries, the message log and the search index;
// nothing here mutates relay state.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"chat-relay/runtime"
)

type Server struct {
	log         *slog.Logger
	connections *runtime.ConnectionRegistry
	rooms       *runtime.RoomRegistry
	registry    *runtime.Registry
	messages    contract.IMessageLog
	search      *repositories.SearchIndex // nil when search is disabled
	startedAt   time.Time
}

func NewServer(
	log *slog.Logger,
	connections *runtime.ConnectionRegistry,
	rooms *runtime.RoomRegistry,
	registry *runtime.Registry,
	messages contract.IMessageLog,
	search *repositories.SearchIndex,
) *Server {
	return &Server{
		log:         log,
		connections: connections,
		rooms:       rooms,
		registry:    registry,
		messages:    messages,
		search:      search,
		startedAt:   time.Now().UTC(),
	}
}

// Register mounts every route on the engine. The websocket endpoint is passed
// in so this package stays free of transport concerns.
func (s *Server) Register(engine *gin.Engine, ws gin.HandlerFunc) {
	engine.GET("/", s.health)
	engine.GET("/users", s.listUsers)
	engine.GET("/messages/:roomId", s.listMessages)
	engine.GET("/messages/:roomId/search", s.searchMessages)
	engine.GET("/debug", s.debugDump)
	engine.GET("/ws", ws)
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{
		"status":    "running",
		"message":   "Chat relay is live",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := p.CPUPercent(); err == nil {
			resp["cpuPercent"] = cpu
		}
		if ram, err := p.MemoryPercent(); err == nil {
			resp["memoryPercent"] = ram
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": s.connections.AllUsers()})
}

func (s *Server) listMessages(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	messages, err := s.messages.List(roomID)
	if err != nil {
		s.log.Error("Listing messages failed", "room", roomID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "messages": messages})
}

func (s *Server) searchMessages(c *gin.Context) {
	if s.search == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "search is disabled"})
		return
	}
	terms := c.Query("q")
	if terms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing query parameter q"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a positive integer"})
		return
	}

	roomID := domain.RoomID(c.Param("roomId"))
	hits, err := s.search.Search(c.Request.Context(), terms, roomID, limit)
	if err != nil {
		s.log.Error("Search failed", "room", roomID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "hits": hits})
}

func (s *Server) debugDump(c *gin.Context) {
	users := s.connections.AllUsers()
	rooms := s.rooms.All()
	totalMessages, err := s.messages.Count()
	if err != nil {
		s.log.Error("Counting messages failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not count messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":    len(users),
		"totalRooms":    len(rooms),
		"totalMessages": totalMessages,
		"users":         users,
		"rooms":         rooms,
		"subscriptions": s.registry.Snapshot(),
	})
}

package lobbyserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dolphinretro/lobby"
	"dolphinretro/lobby/grpcdir"
	"dolphinretro/util"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// Server exposes a Registry over HTTP, a websocket endpoint and gRPC.
type Server struct {
	log zerolog.Logger
	reg *Registry

	engine *gin.Engine
}

func New(log zerolog.Logger, reg *Registry) *Server {
	s := &Server{
		log: log.With().Str("component", "lobbyserver").Logger(),
		reg: reg,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	v0 := r.Group("/v0")
	v0.GET("/list", s.list)
	v0.POST("/session/add", s.add)
	v0.POST("/session/remove", s.remove)
	v0.POST("/session/keepalive", s.keepAlive)
	v0.GET("/ws", s.websocket)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Registry() *Registry {
	return s.reg
}

func (s *Server) logRequests(c *gin.Context) {
	c.Next()

	s.log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Msg("http request")
}

func (s *Server) list(c *gin.Context) {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	sessions, err := s.reg.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, lobby.Response{Status: "ERROR", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, lobby.Response{Status: lobby.StatusOK, Sessions: sessions})
}

func (s *Server) add(c *gin.Context) {
	var session lobby.Session
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, lobby.Response{Status: "BAD_REQUEST", Error: "invalid session body"})
		return
	}
	if session.Name == "" {
		c.JSON(http.StatusBadRequest, lobby.Response{Status: "BAD_REQUEST", Error: "session name required"})
		return
	}

	id, err := s.reg.Add(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, lobby.Response{Status: "ERROR", Error: err.Error()})
		return
	}

	s.log.Info().Str("name", session.Name).Str("game", session.GameID).Msg("lobbyserver: session added")
	c.JSON(http.StatusOK, lobby.Response{Status: lobby.StatusOK, Secret: id})
}

func (s *Server) remove(c *gin.Context) {
	secret := c.Query("secret")
	if err := s.reg.Remove(c.Request.Context(), secret); err != nil {
		c.JSON(http.StatusNotFound, lobby.Response{Status: "NOT_FOUND", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, lobby.Response{Status: lobby.StatusOK})
}

func (s *Server) keepAlive(c *gin.Context) {
	if !s.reg.Touch(c.Query("secret")) {
		c.JSON(http.StatusNotFound, lobby.Response{Status: "NOT_FOUND", Error: lobby.ErrRoomNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, lobby.Response{Status: lobby.StatusOK})
}

func (s *Server) websocket(c *gin.Context) {
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		s.log.Warn().Err(err).Msg("lobbyserver: websocket upgrade failed")
		return
	}

	go func() {
		defer func() {
			if err := recover(); err != nil {
				util.LogPanic(s.log, err)
			}
		}()
		defer conn.Close()

		for {
			msg, op, err := wsutil.ReadClientData(conn)
			if err != nil {
				var closed wsutil.ClosedError
				if !errors.As(err, &closed) {
					s.log.Debug().Err(err).Msg("lobbyserver: websocket read")
				}
				return
			}
			if op != ws.OpText {
				continue
			}

			rsp := s.handle(msg)
			b, err := json.Marshal(rsp)
			if err != nil {
				s.log.Error().Err(err).Msg("lobbyserver: websocket encode")
				return
			}
			if err = wsutil.WriteServerMessage(conn, ws.OpText, b); err != nil {
				s.log.Debug().Err(err).Msg("lobbyserver: websocket write")
				return
			}
		}
	}()
}

func (s *Server) handle(msg []byte) lobby.Response {
	var req lobby.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return lobby.Response{Status: "BAD_REQUEST", Error: "invalid request"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch req.Op {
	case lobby.OpList:
		sessions, err := s.reg.List(ctx, req.Filters)
		if err != nil {
			return lobby.Response{Status: "ERROR", Error: err.Error()}
		}
		return lobby.Response{Status: lobby.StatusOK, Sessions: sessions}
	case lobby.OpAdd:
		if req.Session == nil || req.Session.Name == "" {
			return lobby.Response{Status: "BAD_REQUEST", Error: "session name required"}
		}
		id, err := s.reg.Add(ctx, *req.Session)
		if err != nil {
			return lobby.Response{Status: "ERROR", Error: err.Error()}
		}
		return lobby.Response{Status: lobby.StatusOK, Secret: id}
	case lobby.OpRemove:
		if err := s.reg.Remove(ctx, req.Secret); err != nil {
			return lobby.Response{Status: "NOT_FOUND", Error: err.Error()}
		}
		return lobby.Response{Status: lobby.StatusOK}
	default:
		return lobby.Response{Status: "BAD_REQUEST", Error: "unknown op " + req.Op}
	}
}

// RegisterGRPC serves the registry's sessions on g.
func (s *Server) RegisterGRPC(g *grpc.Server) {
	grpcdir.RegisterDirectoryServer(g, s.reg)
}

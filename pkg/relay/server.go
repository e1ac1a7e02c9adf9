package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server upgrades every request it receives and hands the connection to
// its registry.
type Server struct {
	Registry *Registry

	config   Config
	upgrader websocket.Upgrader
}

func NewServer(cfg Config) *Server {
	return &Server{
		Registry: NewRegistry(),
		config:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("Failed to upgrade: %s", err)
		return
	}

	NewConnection(c, r, s.Registry, s.config)
}

func (s *Server) Close() {
	s.Registry.Close()
}

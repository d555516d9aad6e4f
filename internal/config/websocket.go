package config

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

func NewWebSocket(log *logrus.Logger) *WebSocket {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			log.Debug("ws origin: ", r.Header.Get("Origin"))
			return true
		},
	}
	return &WebSocket{Upgrader: upgrader}
}

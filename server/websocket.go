package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ouagalab/fasotour/pkg/rag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the websocket frame exchanged with interactive clients.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}

		result, err := s.answer(c, msg.Content, -1)
		if err != nil {
			reply := Message{Type: "error", Content: "La requête ne peut pas être vide"}
			if !errors.Is(err, rag.ErrEmptyQuery) {
				reply.Content = "Erreur lors du traitement de la requête"
			}
			s.send(conn, reply)
			continue
		}

		s.send(conn, Message{
			Type:    "response",
			Content: result.Response,
			Data:    result,
		})
	}
}

func (s *Server) send(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		slog.Warn("failed to send websocket message", "error", err)
	}
}

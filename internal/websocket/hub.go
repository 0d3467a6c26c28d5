package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/jaryd-hermann/dateful/internal/services"
)

// Hub fans assistant chat frames out to every open socket a user has. Both
// partners see the same conversation, so a message is delivered to the
// sender and, when connected, to their partner.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type responder interface {
	Respond(ctx context.Context, userID int64, message string) (string, error)
	PartnerUserID(ctx context.Context, userID int64) (int64, bool)
}

type Message struct {
	Type      string `json:"type"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type delivery struct {
	userIDs []string
	message *Message
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) deliver(d *delivery) {
	encoded, err := json.Marshal(d.message)
	if err != nil {
		log.Printf("chat hub encode message: %v", err)
		return
	}

	seen := make(map[string]struct{}, len(d.userIDs))
	for _, userID := range d.userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		h.sendToUser(userID, encoded)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (c *Client) ReadPump(service responder) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	actorID, err := strconv.ParseInt(c.userID, 10, 64)
	if err != nil {
		writeError(c, "invalid user")
		return
	}

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}
		if strings.TrimSpace(incoming.Content) == "" {
			writeError(c, "Message required")
			continue
		}

		reply, err := service.Respond(context.Background(), actorID, incoming.Content)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrOnboardingIncomplete):
				writeError(c, "Complete onboarding first")
			case errors.Is(err, services.ErrNotConfigured):
				writeError(c, "Agent not configured")
			default:
				writeError(c, "Sorry, I ran into an issue. Please try again.")
			}
			continue
		}

		recipients := []string{c.userID}
		if partnerID, ok := service.PartnerUserID(context.Background(), actorID); ok {
			recipients = append(recipients, strconv.FormatInt(partnerID, 10))
		}

		now := services.FormatChatTimestamp(time.Now().UTC())
		c.hub.broadcast <- &delivery{
			userIDs: recipients,
			message: &Message{Type: "message", Role: "user", Content: incoming.Content, Timestamp: now},
		}
		c.hub.broadcast <- &delivery{
			userIDs: recipients,
			message: &Message{Type: "message", Role: "assistant", Content: reply, Timestamp: now},
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}

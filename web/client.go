package web

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"brawler/models"
	"brawler/service"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one spectator connection. The read pump dispatches inbound
// bet/submission frames to the services concurrently with the arena's
// event loop; acks go back on this connection only.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	arena       *service.Arena
	submissions service.SubmissionService
}

type placeBetRequest struct {
	UserID string `json:"user_id"`
	SideID string `json:"side_id"`
	Amount int64  `json:"amount"`
}

type betAck struct {
	Status       string `json:"status"`
	NewBalance   int64  `json:"new_balance,omitempty"`
	TotalWagered int64  `json:"total_wagered,omitempty"`
	Message      string `json:"message,omitempty"`
}

type submitCharacterRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
}

type submissionAck struct {
	Status     string `json:"status"`
	FighterID  string `json:"fighter_id,omitempty"`
	NewBalance int64  `json:"new_balance,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("Spectator connection error")
			}
			return
		}
		c.dispatch(frame)
	}
}

// dispatch handles one inbound frame. Malformed frames are answered with
// an error ack, never dropped silently.
func (c *Client) dispatch(frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.reply("error", map[string]string{"message": "malformed frame"})
		return
	}

	ctx := context.Background()
	switch env.Type {
	case "place_bet":
		var req placeBetRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.reply("bet_ack", betAck{Status: "error", Message: "malformed bet"})
			return
		}
		c.placeBet(ctx, req)

	case "submit_character":
		var req submitCharacterRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.reply("submission_ack", submissionAck{Status: "error", Message: "malformed submission"})
			return
		}
		c.submitCharacter(ctx, req)

	default:
		c.reply("error", map[string]string{"message": "unknown message type"})
	}
}

func (c *Client) placeBet(ctx context.Context, req placeBetRequest) {
	newBalance, totalWagered, err := c.arena.PlaceBet(ctx, req.UserID, req.SideID, req.Amount)
	if err != nil {
		c.reply("bet_ack", betAck{Status: "error", Message: rejectionMessage(err)})
		return
	}
	c.reply("bet_ack", betAck{
		Status:       "ok",
		NewBalance:   newBalance,
		TotalWagered: totalWagered,
	})
}

func (c *Client) submitCharacter(ctx context.Context, req submitCharacterRequest) {
	fighter, newBalance, err := c.submissions.SubmitFighter(ctx, req.UserID, req.Name, req.Image)
	if err != nil {
		c.reply("submission_ack", submissionAck{Status: "error", Message: rejectionMessage(err)})
		return
	}
	c.reply("submission_ack", submissionAck{
		Status:     "ok",
		FighterID:  fighter.ID,
		NewBalance: newBalance,
	})
}

// rejectionMessage maps the two caller-facing error classes to their
// message; anything else is an internal failure the spectator should not
// see the details of.
func rejectionMessage(err error) string {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return validation.Reason
	}
	var liability *models.LiabilityError
	if errors.As(err, &liability) {
		return liability.Error()
	}
	log.WithError(err).Error("Request failed")
	return "something went wrong, try again"
}

// reply queues an ack on this connection only
func (c *Client) reply(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to encode ack")
		return
	}
	frame, err := json.Marshal(Envelope{Type: msgType, Payload: data})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

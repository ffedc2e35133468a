package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/observability"
)

const (
	relaySendBufferSize = 32
	relayPingInterval   = 30 * time.Second

	// RelayEventMessageCreated is the frame event emitted for every stored message.
	RelayEventMessageCreated = "message.created"
)

// MessageDeliverer pushes stored messages to connected clients.
type MessageDeliverer interface {
	Deliver(ctx context.Context, message dto.MessageResponse)
}

// RelayConnectionOptions wraps metadata extracted during the HTTP upgrade.
type RelayConnectionOptions struct {
	UserID        uint
	Role          string
	CorrelationID string
	Context       context.Context
}

// RelayFrame is the JSON frame written to websocket clients.
type RelayFrame struct {
	Event   string              `json:"event"`
	Message dto.MessageResponse `json:"message"`
}

// MessageRelay is a bare pass-through: clients only receive frames, inbound frames are discarded.
type MessageRelay interface {
	MessageDeliverer
	ServeConnection(conn *websocket.Conn, opts RelayConnectionOptions)
	Start(ctx context.Context)
}

type messageRelay struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	hub          *relayHub
	nodeID       string
}

// relayHub tracks open websocket clients per user.
type relayHub struct {
	mu    sync.RWMutex
	users map[uint]map[*relayClient]struct{}
	log   zerolog.Logger
}

type relayClient struct {
	conn    *websocket.Conn
	send    chan RelayFrame
	options RelayConnectionOptions
	relay   *messageRelay
	closed  chan struct{}
	once    sync.Once
}

type relayEvent struct {
	Source  string              `json:"source"`
	Message dto.MessageResponse `json:"message"`
	SentAt  time.Time           `json:"sent_at"`
}

// NewMessageRelay creates the websocket relay. Cross-node fan-out uses NATS when connected,
// otherwise Redis pub/sub; with neither the relay only serves local clients.
func NewMessageRelay(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) MessageRelay {
	relay := &messageRelay{
		logger: logger.With().Str("component", "message_relay").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/relay"),
		hub: &relayHub{
			users: make(map[uint]map[*relayClient]struct{}),
			log:   logger.With().Str("component", "relay_hub").Logger(),
		},
		nodeID: uuid.NewString(),
	}

	if channelBase == "" {
		return relay
	}

	switch {
	case natsConn != nil:
		relay.nats = natsConn
		relay.natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".messages"
	case redisClient != nil:
		relay.redis = redisClient
		relay.redisChannel = channelBase + ":messages"
	}

	return relay
}

func (r *messageRelay) Start(ctx context.Context) {
	if r.nats != nil {
		r.consumeNATS(ctx)
		return
	}
	if r.redis != nil {
		pubsub := r.redis.Subscribe(ctx, r.redisChannel)
		go r.consumeRedis(ctx, pubsub)
	}
}

func (r *messageRelay) ServeConnection(conn *websocket.Conn, opts RelayConnectionOptions) {
	client := &relayClient{
		conn:    conn,
		send:    make(chan RelayFrame, relaySendBufferSize),
		options: opts,
		relay:   r,
		closed:  make(chan struct{}),
	}

	correlation := opts.CorrelationID
	if correlation == "" && opts.Context != nil {
		correlation = middleware.CorrelationIDFromContext(opts.Context)
	}

	r.hub.register(client)
	observability.RelayConnections().Inc()
	r.logger.Info().Uint("user_id", opts.UserID).Str("correlation_id", correlation).Msg("relay client connected")

	go client.writer()
	client.reader()

	observability.RelayConnections().Dec()
	r.logger.Info().Uint("user_id", opts.UserID).Str("correlation_id", correlation).Msg("relay client disconnected")
}

// Deliver fans the message out to the sender's and recipient's local connections and to peer nodes.
func (r *messageRelay) Deliver(ctx context.Context, message dto.MessageResponse) {
	ctx, span := r.tracer.Start(ctx, "relay.deliver", trace.WithAttributes(
		attribute.Int("relay.message_id", int(message.ID)),
		attribute.Int("relay.recipient_id", int(message.RecipientID)),
	))
	defer span.End()

	r.deliverLocal(message, "local")
	if err := r.publish(ctx, message); err != nil {
		span.RecordError(err)
		r.logger.Warn().Err(err).Uint("message_id", message.ID).Msg("failed to publish relay event")
	}
}

func (r *messageRelay) deliverLocal(message dto.MessageResponse, origin string) {
	frame := RelayFrame{Event: RelayEventMessageCreated, Message: message}
	delivered := r.hub.send(message.RecipientID, frame)
	if message.SenderID != message.RecipientID {
		delivered += r.hub.send(message.SenderID, frame)
	}
	if delivered > 0 {
		observability.RelayMessages().WithLabelValues(origin).Add(float64(delivered))
	}
}

func (r *messageRelay) publish(ctx context.Context, message dto.MessageResponse) error {
	if r.nats == nil && r.redis == nil {
		return nil
	}

	payload, err := json.Marshal(relayEvent{Source: r.nodeID, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	if r.nats != nil {
		return r.nats.Publish(r.natsSubject, payload)
	}
	return r.redis.Publish(ctx, r.redisChannel, payload).Err()
}

func (r *messageRelay) consumeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			r.logger.Error().Err(err).Msg("relay redis subscription closed")
			return
		}
		r.handleEvent([]byte(msg.Payload))
	}
}

// consumeNATS subscribes every node (no queue group) so each one can reach its own clients.
func (r *messageRelay) consumeNATS(ctx context.Context) {
	sub, err := r.nats.Subscribe(r.natsSubject, func(msg *nats.Msg) {
		r.handleEvent(msg.Data)
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to subscribe to nats relay subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to drain relay nats subscription")
		}
	}()
}

func (r *messageRelay) handleEvent(data []byte) {
	var event relayEvent
	if err := json.Unmarshal(data, &event); err != nil {
		r.logger.Warn().Err(err).Msg("invalid relay event")
		return
	}

	if event.Source == r.nodeID {
		return
	}

	r.deliverLocal(event.Message, "remote")
}

func (h *relayHub) register(client *relayClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.options.UserID
	if _, exists := h.users[userID]; !exists {
		h.users[userID] = make(map[*relayClient]struct{})
	}
	h.users[userID][client] = struct{}{}
	h.log.Debug().Uint("user_id", userID).Int("connections", len(h.users[userID])).Msg("relay client registered")
}

func (h *relayHub) unregister(client *relayClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.options.UserID
	if clients, ok := h.users[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.users, userID)
		}
	}
	h.log.Debug().Uint("user_id", userID).Msg("relay client unregistered")
}

func (h *relayHub) send(userID uint, frame RelayFrame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.users[userID] {
		select {
		case client.send <- frame:
			delivered++
		default:
			h.log.Warn().Uint("user_id", userID).Msg("dropping relay frame for slow client")
		}
	}
	return delivered
}

func (h *relayHub) connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// reader drains inbound frames so control messages are processed and disconnects are noticed.
func (c *relayClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.relay.logger.Debug().Err(err).Msg("relay read loop ended")
			return
		}
	}
}

func (c *relayClient) writer() {
	defer c.close()

	ticker := time.NewTicker(relayPingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteJSON(frame); err != nil {
				c.relay.logger.Debug().Err(err).Msg("relay write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.relay.logger.Debug().Err(err).Msg("relay ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *relayClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.relay.hub.unregister(c)
		_ = c.conn.Close()
	})
}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	connectTimeout    = 30 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// Handler processes one MQTT message.
type Handler interface {
	HandleMessage(ctx context.Context, topic string, body []byte) (bool, error)
}

// Options configures a Bridge.
type Options struct {
	Broker    string
	BaseTopic string
	ClientID  string // generated when empty
	Logger    *slog.Logger
}

// Bridge subscribes to BaseTopic/# and hands every message to its Handler.
type Bridge struct {
	opts    Options
	handler Handler
	state   *stateMachine
	logger  *slog.Logger
}

func New(opts Options, h Handler) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ClientID == "" {
		opts.ClientID = "weatherwear-bridge-" + uuid.NewString()
	}
	return &Bridge{
		opts:    opts,
		handler: h,
		state:   &stateMachine{cur: Disconnected, logger: opts.Logger},
		logger:  opts.Logger,
	}
}

// Topic returns the subscription filter.
func (b *Bridge) Topic() string {
	return strings.TrimRight(b.opts.BaseTopic, "/") + "/#"
}

// State returns the current connection state.
func (b *Bridge) State() State { return b.state.get() }

// Run connects and relays messages until ctx is cancelled.  Connection
// drops are retried by the client; a failed first connect is returned.
func (b *Bridge) Run(ctx context.Context) error {
	if b.opts.BaseTopic == "" {
		return errors.New("bridge: base topic is required")
	}
	client := mqtt.NewClient(b.clientOptions(ctx))

	b.state.set(Connecting)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		b.state.set(Disconnected)
		return fmt.Errorf("bridge: connect to %s timed out", b.opts.Broker)
	}
	if err := tok.Error(); err != nil {
		b.state.set(Disconnected)
		return fmt.Errorf("bridge: connect to %s: %w", b.opts.Broker, err)
	}

	<-ctx.Done()
	client.Disconnect(disconnectQuiesce)
	b.state.set(Disconnected)
	b.logger.Info("bridge stopped")
	return nil
}

func (b *Bridge) clientOptions(ctx context.Context) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(b.opts.Broker).
		SetClientID(b.opts.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			b.logger.Info("connected to broker", "broker", b.opts.Broker)
			b.subscribe(ctx, c)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.logger.Warn("connection lost", "err", err)
			b.state.set(Disconnected)
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			b.state.set(Connecting)
		})
}

// subscribe runs on every (re)connect.
func (b *Bridge) subscribe(ctx context.Context, c mqtt.Client) {
	topic := b.Topic()
	tok := c.Subscribe(topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		b.onMessage(ctx, m.Topic(), m.Payload())
	})
	if !tok.WaitTimeout(connectTimeout) || tok.Error() != nil {
		b.logger.Error("subscribe failed", "topic", topic, "err", tok.Error())
		return
	}
	b.state.set(Subscribed)
	b.logger.Info("subscribed", "topic", topic)
}

func (b *Bridge) onMessage(ctx context.Context, topic string, payload []byte) {
	b.state.set(Processing)
	defer b.state.set(Subscribed)

	_, err := b.handler.HandleMessage(ctx, topic, payload)
	switch {
	case errors.Is(err, ErrMalformedPayload):
		b.logger.Warn("non-JSON message dropped", "topic", topic, "payload", string(payload))
	case err != nil:
		b.logger.Error("forward failed", "topic", topic, "err", err)
	}
}

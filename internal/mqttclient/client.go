// Package mqttclient subscribes to remote-player position reports. Headless
// players (kiosk boxes, OBS plugins) that cannot hold an HTTP connection
// publish their clock to scribesync/playback/<session-id>/time and this
// client feeds the reports into the matching session's sync source.
package mqttclient

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const playbackTopicFilter = "scribesync/playback/+/time"

// SessionSync resolves a session ID to its playback sync hook. A nil return
// means the session does not exist and the report is dropped.
type SessionSync func(sessionID string) func(currentTime float64)

type Client struct {
	conn      mqtt.Client
	resolve   SessionSync
	connected atomic.Bool
	log       zerolog.Logger

	received atomic.Int64
	dropped  atomic.Int64
}

type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Resolve   SessionSync
	Log       zerolog.Logger
}

func Connect(opts Options) (*Client, error) {
	c := &Client{
		resolve: opts.Resolve,
		log:     opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetDefaultPublishHandler(c.onMessage)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) onConnect(client mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Str("filter", playbackTopicFilter).Msg("mqtt connected, subscribing")

	token := client.Subscribe(playbackTopicFilter, 0, nil)
	token.Wait()
	if err := token.Error(); err != nil {
		c.log.Error().Err(err).Msg("mqtt subscribe failed")
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.received.Add(1)

	sessionID, ok := SessionFromTopic(msg.Topic())
	if !ok {
		c.dropped.Add(1)
		c.log.Debug().Str("topic", msg.Topic()).Msg("mqtt message on unexpected topic")
		return
	}

	var report struct {
		Type        string  `json:"type"`
		CurrentTime float64 `json:"currentTime"`
	}
	if err := json.Unmarshal(msg.Payload(), &report); err != nil {
		c.dropped.Add(1)
		c.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("malformed playback report")
		return
	}
	if report.Type != "" && report.Type != "time" {
		c.dropped.Add(1)
		return
	}

	sync := c.resolve(sessionID)
	if sync == nil {
		c.dropped.Add(1)
		c.log.Debug().Str("session_id", sessionID).Msg("playback report for unknown session")
		return
	}
	sync(report.CurrentTime)
}

// SessionFromTopic extracts the session ID from a playback report topic.
func SessionFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "scribesync" || parts[1] != "playback" || parts[3] != "time" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Stats reports received and dropped message counts since start.
func (c *Client) Stats() (received, dropped int64) {
	return c.received.Load(), c.dropped.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}

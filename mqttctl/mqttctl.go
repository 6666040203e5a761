// Package mqttctl forwards JSON playback commands received over MQTT to a
// live texture.
package mqttctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gekko3d/lottietex"
)

// Controller is satisfied by *lottietex.LiveTexture.
type Controller interface {
	Play() error
	Pause() error
	GoToAndPlay(value float64, isFrame bool) error
	GoToAndStop(value float64, isFrame bool) error
}

const (
	ActionPlay        = "play"
	ActionPause       = "pause"
	ActionGoToAndPlay = "goToAndPlay"
	ActionGoToAndStop = "goToAndStop"
)

type Command struct {
	Action  string  `json:"action"`
	Value   float64 `json:"value,omitempty"`
	IsFrame bool    `json:"isFrame,omitempty"`
}

var ErrUnknownAction = errors.New("unknown action")

func Decode(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("failed to decode command: %w", err)
	}
	if cmd.Action == "" {
		return Command{}, fmt.Errorf("failed to decode command: missing action")
	}
	return cmd, nil
}

// Dispatch applies cmd to ctrl.
func Dispatch(ctrl Controller, cmd Command) error {
	switch cmd.Action {
	case ActionPlay:
		return ctrl.Play()
	case ActionPause:
		return ctrl.Pause()
	case ActionGoToAndPlay:
		return ctrl.GoToAndPlay(cmd.Value, cmd.IsFrame)
	case ActionGoToAndStop:
		return ctrl.GoToAndStop(cmd.Value, cmd.IsFrame)
	}
	return fmt.Errorf("%w %q", ErrUnknownAction, cmd.Action)
}

// Handler returns an MQTT message handler that drives ctrl. Bad payloads
// and control errors are logged, never returned to the broker.
func Handler(ctrl Controller, logger lottietex.Logger) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := Decode(msg.Payload())
		if err != nil {
			logger.Warnf("mqttctl: %s: %v", msg.Topic(), err)
			return
		}
		logger.Debugf("mqttctl: %s: %s value=%v isFrame=%v", msg.Topic(), cmd.Action, cmd.Value, cmd.IsFrame)
		if err := Dispatch(ctrl, cmd); err != nil {
			logger.Errorf("mqttctl: %s: %v", msg.Topic(), err)
		}
	}
}

// Subscribe attaches ctrl to topic on an already connected client.
func Subscribe(client mqtt.Client, topic string, qos byte, ctrl Controller, logger lottietex.Logger) error {
	token := client.Subscribe(topic, qos, Handler(ctrl, logger))
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("failed to subscribe to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	logger.Infof("mqttctl: listening on %s", topic)
	return nil
}

// Connect builds and connects a client for broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	options := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second)
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("failed to connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", broker, err)
	}
	return client, nil
}

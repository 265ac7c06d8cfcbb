package cli

import "errors"

var errNoBroker = errors.New("no MQTT broker configured, set [mqtt] address")

// Package relay mirrors bus events to an external broker so services outside
// this process can follow order activity. Sinks implement bus.Mirror.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"swiftserve/bus"
)

// Sink is a bus.Mirror that holds a broker connection.
type Sink interface {
	bus.Mirror
	Close() error
}

func encode(ev bus.Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("relay: marshal %s event: %w", ev.Type, err)
	}
	return body, nil
}

// routingKey maps order_12 + status_update to "order.12.status_update", so
// topic bindings like "order.*.status_update" or "restaurant.#" work.
func routingKey(ev bus.Event) string {
	return strings.Replace(ev.Room, "_", ".", 1) + "." + ev.Type
}

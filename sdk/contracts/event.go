package contracts

import "time"

// Event is a decoded message delivered to subscribers.
type Event struct {
	Endpoint  EndpointID    // Endpoint the message arrived from.
	Message   Message       // Decoded message.
	Timestamp uint16        // 13-bit BLE-MIDI timestamp the peer attached.
	Delay     time.Duration // Delay applied before delivery; 0 when delivered immediately.
}

// LifecycleHandler is called when an endpoint attaches or detaches.
type LifecycleHandler func(info EndpointInfo)

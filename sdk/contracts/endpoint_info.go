package contracts

// EndpointID is the stable identity key of a connected peripheral endpoint,
// for example the BLE address of the peripheral.
type EndpointID string

// EndpointInfo describes a BLE-MIDI peripheral endpoint.
type EndpointInfo struct {
	ID            EndpointID // Stable identity key.
	Name          string     // Advertised device name.
	MaxPacketSize int        // Write payload budget; 0 uses the session default.
}

// DeviceInfo contains information about a local MIDI input device.
type DeviceInfo struct {
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}

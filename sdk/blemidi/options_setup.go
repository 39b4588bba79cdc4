package blemidi

import (
	"fmt"

	"github.com/leandrodaf/blemidi/internal/clock"
	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// applyDefaultOptions sets default values for Options that were not provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify Options.
//
// Returns:
//   - contracts.Options: The finalized options with defaults applied.
//   - error: An error if an option value is out of range.
func applyDefaultOptions(opts ...contracts.Option) (contracts.Options, error) {
	options := &contracts.Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.MaxPacketSize != 0 && options.MaxPacketSize < contracts.MinMaxPacketSize {
		return contracts.Options{}, fmt.Errorf("max packet size %d below minimum %d", options.MaxPacketSize, contracts.MinMaxPacketSize)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.MaxPacketSize == 0 {
		options.MaxPacketSize = contracts.DefaultMaxPacketSize
	}
	if options.Clock == nil {
		options.Clock = clock.NewSystem()
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO BLE-MIDI Bridge"}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}

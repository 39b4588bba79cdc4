// Package blemidi is the entry point of the BLE-MIDI library: it builds session
// managers for BLE-MIDI peripherals and local MIDI bridges that feed them.
package blemidi

import (
	"github.com/leandrodaf/blemidi/internal/session"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// NewManager creates a session manager with the given options applied over the
// defaults.
//
// opts ...contracts.Option: A variadic list of option functions to customize the manager.
//
// Returns:
//   - contracts.Manager: The session manager.
//   - error: An error, if any occurred while applying the options.
func NewManager(opts ...contracts.Option) (contracts.Manager, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return session.NewManager(options), nil
}

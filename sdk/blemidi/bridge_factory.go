package blemidi

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/blemidi/internal/bridge/bridgedarwin"
	"github.com/leandrodaf/blemidi/internal/bridge/bridgewindows"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// bridgeInitializers maps OS names to local MIDI bridge initializers.
var bridgeInitializers = map[string]func(*contracts.Options) (contracts.Bridge, error){
	"darwin":  bridgedarwin.NewBridge,  // CoreMIDI
	"windows": bridgewindows.NewBridge, // winmm
}

// NewBridge creates the local MIDI input bridge of the current operating system.
// It returns contracts.ErrUnsupportedOS on systems without one.
func NewBridge(opts ...contracts.Option) (contracts.Bridge, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	if initializer, exists := bridgeInitializers[runtime.GOOS]; exists {
		return initializer(&options)
	}
	return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, runtime.GOOS)
}

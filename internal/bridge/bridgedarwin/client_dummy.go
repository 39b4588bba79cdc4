//go:build !darwin
// +build !darwin

package bridgedarwin

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

type dummyBridge struct {
	logger contracts.Logger
}

func NewBridge(options *contracts.Options) (contracts.Bridge, error) {
	options.Logger.Info("Using dummy CoreMIDI bridge for non-macOS system")
	return &dummyBridge{logger: options.Logger}, nil
}

func (m *dummyBridge) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy CoreMIDI bridge")
	return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, runtime.GOOS)
}

func (m *dummyBridge) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy CoreMIDI bridge")
	return fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, runtime.GOOS)
}

func (m *dummyBridge) StartForwarding(target contracts.Sender) {
	m.logger.Warn("StartForwarding called on dummy CoreMIDI bridge")
}

func (m *dummyBridge) Stop() error {
	m.logger.Warn("Stop called on dummy CoreMIDI bridge")
	return nil
}

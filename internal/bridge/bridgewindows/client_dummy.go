//go:build !windows
// +build !windows

package bridgewindows

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

type dummyBridge struct {
	logger contracts.Logger
}

// NewBridge returns a bridge whose device operations fail on non-Windows systems.
func NewBridge(options *contracts.Options) (contracts.Bridge, error) {
	options.Logger.Info("Using dummy winmm bridge for non-Windows system")
	return &dummyBridge{logger: options.Logger}, nil
}

// ListDevices always fails with contracts.ErrUnsupportedOS.
func (m *dummyBridge) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy winmm bridge")
	return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, runtime.GOOS)
}

// SelectDevice always fails with contracts.ErrUnsupportedOS.
func (m *dummyBridge) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy winmm bridge")
	return fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, runtime.GOOS)
}

func (m *dummyBridge) StartForwarding(target contracts.Sender) {
	m.logger.Warn("StartForwarding called on dummy winmm bridge")
}

func (m *dummyBridge) Stop() error {
	m.logger.Warn("Stop called on dummy winmm bridge")
	return nil
}

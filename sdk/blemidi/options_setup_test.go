package blemidi

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/leandrodaf/blemidi/internal/clock"
	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions()
	if err != nil {
		t.Fatalf("applyDefaultOptions() error = %v", err)
	}
	if options.Logger == nil || options.Clock == nil {
		t.Error("Logger and Clock must default to non-nil")
	}
	if options.MaxPacketSize != contracts.DefaultMaxPacketSize {
		t.Errorf("MaxPacketSize = %d, want %d", options.MaxPacketSize, contracts.DefaultMaxPacketSize)
	}
	if options.CoreMIDIConfig == nil || options.CoreMIDIConfig.ClientName == "" {
		t.Error("CoreMIDIConfig must default to a named client")
	}
	if options.TrustTimestamp != nil {
		t.Error("TrustTimestamp must stay unset")
	}
}

func TestApplyDefaultOptionsKeepsProvidedValues(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	log := logger.NewNopLogger()

	options, err := applyDefaultOptions(
		contracts.WithLogger(log),
		contracts.WithClock(clk),
		contracts.WithMaxPacketSize(contracts.PacketSizeForMTU(185)),
		contracts.WithTimestampTrust(false),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "Studio"}),
	)
	if err != nil {
		t.Fatalf("applyDefaultOptions() error = %v", err)
	}
	if options.Logger != log || options.Clock != clk {
		t.Error("provided Logger or Clock was replaced")
	}
	if options.MaxPacketSize != 182 {
		t.Errorf("MaxPacketSize = %d, want 182", options.MaxPacketSize)
	}
	if options.TrustTimestamp == nil || *options.TrustTimestamp {
		t.Error("TrustTimestamp = true, want false")
	}
	if options.CoreMIDIConfig.ClientName != "Studio" {
		t.Errorf("ClientName = %q, want Studio", options.CoreMIDIConfig.ClientName)
	}
}

func TestApplyDefaultOptionsRejectsTinyPackets(t *testing.T) {
	if _, err := applyDefaultOptions(contracts.WithMaxPacketSize(3)); err == nil {
		t.Error("applyDefaultOptions() accepted a 3-byte packet size")
	}
}

func TestNewManager(t *testing.T) {
	m, err := NewManager(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer m.Close()

	s, err := m.Attach(contracts.EndpointInfo{ID: "synth"}, nil)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if s.Info().MaxPacketSize != contracts.DefaultMaxPacketSize {
		t.Errorf("MaxPacketSize = %d, want %d", s.Info().MaxPacketSize, contracts.DefaultMaxPacketSize)
	}
}

func TestNewBridgeUnsupportedOS(t *testing.T) {
	if _, ok := bridgeInitializers[runtime.GOOS]; ok {
		t.Skipf("%s has a MIDI bridge", runtime.GOOS)
	}
	if _, err := NewBridge(contracts.WithLogger(logger.NewNopLogger())); !errors.Is(err, contracts.ErrUnsupportedOS) {
		t.Errorf("NewBridge() error = %v, want ErrUnsupportedOS", err)
	}
}

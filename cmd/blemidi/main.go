// Package main is the entry point for the blemidi CLI
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/leandrodaf/blemidi/internal/api"
	"github.com/leandrodaf/blemidi/internal/clock"
	"github.com/leandrodaf/blemidi/internal/codec"
	"github.com/leandrodaf/blemidi/internal/logger"
	"github.com/leandrodaf/blemidi/internal/midiconv"
	"github.com/leandrodaf/blemidi/sdk/blemidi"
	"github.com/leandrodaf/blemidi/sdk/contracts"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	verbose       bool
	untrusted     bool
	mtu           int
	maxPacketSize int
	serverPort    int
	deviceID      int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blemidi",
	Short: "Encode, decode and bridge BLE-MIDI packets",
	Long: `blemidi works with the packet format of MIDI over Bluetooth Low Energy.

Examples:
  blemidi decode 80e4903c64 80e5803c00
  blemidi encode f07e7f0601f7 --mtu 23
  blemidi serve --port 8080
  blemidi bridge list
  blemidi bridge forward --device 0`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <packet-hex>...",
	Short: "Decode BLE-MIDI packets in arrival order",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

var encodeCmd = &cobra.Command{
	Use:   "encode <midi-hex>",
	Short: "Encode a raw MIDI stream into BLE-MIDI packets",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP codec API",
	RunE:  runServe,
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Forward a local MIDI input device",
}

var bridgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local MIDI input devices",
	RunE:  runBridgeList,
}

var bridgeForwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Encode a local MIDI input as BLE-MIDI packets and print them",
	RunE:  runBridgeForward,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	decodeCmd.Flags().BoolVar(&untrusted, "untrusted", false, "Ignore packet timestamps when computing delays")

	encodeCmd.Flags().IntVar(&mtu, "mtu", 0, "Negotiated ATT MTU (overrides --max-packet-size)")
	encodeCmd.Flags().IntVar(&maxPacketSize, "max-packet-size", contracts.DefaultMaxPacketSize, "Largest packet to emit")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Port to listen on")

	bridgeForwardCmd.Flags().IntVarP(&deviceID, "device", "d", 0, "Index of the input device (see bridge list)")
	bridgeForwardCmd.Flags().IntVar(&mtu, "mtu", 0, "ATT MTU of the simulated link")

	bridgeCmd.AddCommand(bridgeListCmd, bridgeForwardCmd)
	rootCmd.AddCommand(decodeCmd, encodeCmd, serveCmd, bridgeCmd)
}

func newLogger() contracts.Logger {
	if verbose {
		l := logger.NewDevelopmentLogger()
		l.SetLevel(contracts.DebugLevel)
		return l
	}
	l := logger.NewZapLogger()
	l.SetLevel(contracts.WarnLevel)
	return l
}

func packetSize() int {
	if mtu > 0 {
		return contracts.PacketSizeForMTU(mtu)
	}
	return maxPacketSize
}

func runDecode(cmd *cobra.Command, args []string) error {
	decoder := codec.NewDecoder(clock.NewSystem(), newLogger(), !untrusted)
	out := cmd.OutOrStdout()

	for i, arg := range args {
		payload, err := hex.DecodeString(arg)
		if err != nil {
			return fmt.Errorf("packet %d: %w", i+1, err)
		}
		for _, d := range decoder.Feed(payload) {
			fmt.Fprintf(out, "%4d  %8s  %s\n", d.Timestamp, d.Delay, midiconv.Describe(d.Message))
		}
	}

	if n := decoder.Desyncs(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "dropped input %d time(s) to resynchronize\n", n)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("midi: %w", err)
	}
	size := packetSize()
	if size < contracts.MinMaxPacketSize {
		return fmt.Errorf("packet size %d below minimum %d", size, contracts.MinMaxPacketSize)
	}

	encoder := codec.NewEncoder(clock.NewSystem(), size)
	for _, msg := range midiconv.Parse(raw) {
		packets, err := encoder.Encode(msg)
		if err != nil {
			return err
		}
		for _, p := range packets {
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(p))
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Starting API server on port %d\n", serverPort)
	return api.NewServer(newLogger(), clock.NewSystem()).Run(serverPort)
}

func runBridgeList(cmd *cobra.Command, args []string) error {
	b, err := blemidi.NewBridge(contracts.WithLogger(newLogger()))
	if err != nil {
		return err
	}
	defer b.Stop()

	devices, err := b.ListDevices()
	if err != nil {
		return err
	}
	for i, d := range devices {
		fmt.Fprintf(cmd.OutOrStdout(), "%d: %s (%s, %s)\n", i, d.Name, d.EntityName, d.Manufacturer)
	}
	return nil
}

// hexSink prints every packet on its own line.
type hexSink struct {
	w io.Writer
}

func (s hexSink) Write(_ context.Context, payload []byte) error {
	_, err := fmt.Fprintln(s.w, strings.ToUpper(hex.EncodeToString(payload)))
	return err
}

func runBridgeForward(cmd *cobra.Command, args []string) error {
	log := newLogger()

	manager, err := blemidi.NewManager(contracts.WithLogger(log), contracts.WithMaxPacketSize(packetSize()))
	if err != nil {
		return err
	}
	defer manager.Close()

	session, err := manager.Attach(contracts.EndpointInfo{ID: "stdout", Name: "Packet printer"}, hexSink{w: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	b, err := blemidi.NewBridge(contracts.WithLogger(log))
	if err != nil {
		return err
	}
	defer b.Stop()

	if err := b.SelectDevice(deviceID); err != nil {
		return err
	}
	b.StartForwarding(session)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintln(cmd.ErrOrStderr(), "Forwarding; press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

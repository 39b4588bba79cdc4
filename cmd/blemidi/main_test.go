package main

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, "decode", "80e4903c64", "80e5b0650080e5b0640080e5b00640")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("decode printed %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "NoteOn") {
		t.Errorf("first line = %q, want a NoteOn", lines[0])
	}
}

func TestDecodeCommandRejectsBadHex(t *testing.T) {
	if _, err := execute(t, "decode", "zz"); err == nil {
		t.Error("decode accepted invalid hex")
	}
}

func TestEncodeCommand(t *testing.T) {
	out, err := execute(t, "encode", "f00102030405060708090a0b0c0d0e0f10111213f7", "--max-packet-size", "10")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	packets := strings.Fields(out)
	if len(packets) != 3 {
		t.Fatalf("encode printed %d packets, want 3:\n%s", len(packets), out)
	}
	for _, p := range packets {
		if len(p) > 20 {
			t.Errorf("packet %s exceeds 10 bytes", p)
		}
	}
}

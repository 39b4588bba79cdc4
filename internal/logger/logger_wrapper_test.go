package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/blemidi/sdk/contracts"
)

func TestZapLoggerFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blemidi.log")

	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("session attached",
		log.Field().String("endpoint", "aa:bb"),
		log.Field().Int("packet_size", 20),
		log.Field().Hex("payload", []byte{0x80, 0x80, 0xF8}),
		log.Field().Error("error", errors.New("boom")),
	)
	log.Debug("hidden at info level")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{`"msg":"session attached"`, `"endpoint":"aa:bb"`, `"packet_size":20`, `"payload":"8080f8"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug entry written at info level")
	}
}

func TestZapLoggerSetLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   contracts.LogLevel
		logged  []string
		dropped []string
	}{
		{"debug", contracts.DebugLevel, []string{"d", "i", "w", "e"}, nil},
		{"info", contracts.InfoLevel, []string{"i", "w", "e"}, []string{"d"}},
		{"warn", contracts.WarnLevel, []string{"w", "e"}, []string{"d", "i"}},
		{"error", contracts.ErrorLevel, []string{"e"}, []string{"d", "i", "w"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "level.log")
			log := NewZapLogger()
			log.SetDestination(contracts.FileLog, path)
			log.SetLevel(tt.level)

			log.Debug("msg-d")
			log.Info("msg-i")
			log.Warn("msg-w")
			log.Error("msg-e")

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			for _, m := range tt.logged {
				if !strings.Contains(string(data), `"msg-`+m+`"`) {
					t.Errorf("expected msg-%s to be logged", m)
				}
			}
			for _, m := range tt.dropped {
				if strings.Contains(string(data), `"msg-`+m+`"`) {
					t.Errorf("expected msg-%s to be dropped", m)
				}
			}
		})
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.SetLevel(contracts.DebugLevel)
	log.SetDestination(contracts.FileLog, filepath.Join(t.TempDir(), "never.log"))
	log.Info("nothing", log.Field().Bool("ok", true))
}

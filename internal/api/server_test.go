package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leandrodaf/blemidi/internal/clock"
	"github.com/leandrodaf/blemidi/internal/codec"
	"github.com/leandrodaf/blemidi/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	// BLE-MIDI timestamp 300
	clk := clock.NewFake(time.UnixMilli(codec.TimestampPeriod*200000 + 300))
	return NewServer(logger.NewNopLogger(), clk).Router()
}

func post(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter()
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestDecode(t *testing.T) {
	r := newTestRouter()
	w := post(t, r, "/api/v1/decode", DecodeRequest{Packets: []string{
		"80e4903c64",
		"80e5803c00",
		"80e6f0010203e6f7",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp DecodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	var kinds, midi []string
	for _, ev := range resp.Events {
		kinds = append(kinds, ev.Kind)
		midi = append(midi, ev.MIDI)
	}
	if want := []string{"NoteOn", "NoteOff", "SystemExclusive"}; !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if want := []string{"903c64", "803c00", "f0010203f7"}; !reflect.DeepEqual(midi, want) {
		t.Errorf("midi = %v, want %v", midi, want)
	}
	if resp.Events[0].Timestamp != 100 || resp.Events[1].DelayMs != 11 {
		t.Errorf("timing = %+v %+v", resp.Events[0], resp.Events[1])
	}
	if !resp.TimestampTrusted || resp.Desyncs != 0 {
		t.Errorf("trusted = %v, desyncs = %d", resp.TimestampTrusted, resp.Desyncs)
	}
}

func TestDecodeRejectsBadHex(t *testing.T) {
	w := post(t, newTestRouter(), "/api/v1/decode", DecodeRequest{Packets: []string{"8x"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		req  EncodeRequest
		code int
		want []string
	}{
		{"note on", EncodeRequest{MIDI: "903c64"}, http.StatusOK, []string{"82ac903c64"}},
		{"running status", EncodeRequest{MIDI: "903c643e64"}, http.StatusOK, []string{"82ac903c64", "82ac903e64"}},
		{"sysex split", EncodeRequest{MIDI: "f00102030405f7", MaxPacketSize: 6}, http.StatusOK, []string{"82acf0010203", "82ac0405acf7"}},
		{"bad hex", EncodeRequest{MIDI: "zz"}, http.StatusBadRequest, nil},
		{"tiny packets", EncodeRequest{MIDI: "f8", MaxPacketSize: 4}, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, newTestRouter(), "/api/v1/encode", tt.req)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var resp EncodeResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if !reflect.DeepEqual(resp.Packets, tt.want) {
				t.Errorf("packets = %v, want %v", resp.Packets, tt.want)
			}
		})
	}
}

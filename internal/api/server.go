// Package api serves the BLE-MIDI codec over HTTP for inspection and tooling.
package api

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leandrodaf/blemidi/internal/codec"
	"github.com/leandrodaf/blemidi/internal/midiconv"
	"github.com/leandrodaf/blemidi/sdk/contracts"
)

// DecodeRequest carries hex-encoded BLE-MIDI packets, decoded in order by one decoder.
type DecodeRequest struct {
	Packets        []string `json:"packets" binding:"required"`
	TrustTimestamp *bool    `json:"trust_timestamp"`
}

// DecodedEvent is one message of a DecodeResponse.
type DecodedEvent struct {
	Kind        string  `json:"kind"`
	Timestamp   uint16  `json:"timestamp"`
	DelayMs     float64 `json:"delay_ms"`
	MIDI        string  `json:"midi,omitempty"`
	Description string  `json:"description"`
}

type DecodeResponse struct {
	Events           []DecodedEvent `json:"events"`
	Desyncs          uint64         `json:"desyncs"`
	TimestampTrusted bool           `json:"timestamp_trusted"`
}

// EncodeRequest carries a hex-encoded raw MIDI stream.
type EncodeRequest struct {
	MIDI          string `json:"midi" binding:"required"`
	MaxPacketSize int    `json:"max_packet_size"`
}

type EncodeResponse struct {
	Packets []string `json:"packets"`
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	logger contracts.Logger
	clock  contracts.Clock
}

func NewServer(logger contracts.Logger, clock contracts.Clock) *Server {
	return &Server{logger: logger, clock: clock}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/decode", s.handleDecode)
		v1.POST("/encode", s.handleEncode)
	}
	return r
}

// Run serves on port until the listener fails.
func (s *Server) Run(port int) error {
	s.logger.Info("BLE-MIDI API listening", s.logger.Field().Int("port", port))
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("HTTP request",
			s.logger.Field().String("method", c.Request.Method),
			s.logger.Field().String("path", c.FullPath()),
			s.logger.Field().Int("status", c.Writer.Status()))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "blemidi",
	})
}

func (s *Server) handleDecode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trusted := req.TrustTimestamp == nil || *req.TrustTimestamp
	decoder := codec.NewDecoder(s.clock, s.logger, trusted)
	resp := DecodeResponse{Events: []DecodedEvent{}}

	for i, packet := range req.Packets {
		payload, err := hex.DecodeString(packet)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("packet %d: %v", i, err)})
			return
		}
		for _, d := range decoder.Feed(payload) {
			ev := DecodedEvent{
				Kind:        d.Message.Kind().String(),
				Timestamp:   d.Timestamp,
				DelayMs:     float64(d.Delay.Microseconds()) / 1000,
				Description: midiconv.Describe(d.Message),
			}
			if raw, err := codec.Raw(d.Message); err == nil {
				ev.MIDI = hex.EncodeToString(raw)
			}
			resp.Events = append(resp.Events, ev)
		}
	}

	resp.Desyncs = decoder.Desyncs()
	resp.TimestampTrusted = decoder.TimestampTrusted()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEncode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := hex.DecodeString(req.MIDI)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("midi: %v", err)})
		return
	}
	if req.MaxPacketSize == 0 {
		req.MaxPacketSize = contracts.DefaultMaxPacketSize
	}
	if req.MaxPacketSize < contracts.MinMaxPacketSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("max_packet_size must be at least %d", contracts.MinMaxPacketSize)})
		return
	}

	encoder := codec.NewEncoder(s.clock, req.MaxPacketSize)
	resp := EncodeResponse{Packets: []string{}}
	for _, msg := range midiconv.Parse(raw) {
		packets, err := encoder.Encode(msg)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		for _, p := range packets {
			resp.Packets = append(resp.Packets, hex.EncodeToString(p))
		}
	}
	c.JSON(http.StatusOK, resp)
}

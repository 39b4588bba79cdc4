package session

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/blemidi/sdk/contracts"
	"go.uber.org/multierr"
)

// Manager keeps one Session per attached endpoint. Sessions of different endpoints
// share nothing but the event channel.
type Manager struct {
	options contracts.Options
	logger  contracts.Logger

	mu       sync.RWMutex
	sessions map[contracts.EndpointID]*Session

	eventChannel atomic.Value // chan contracts.Event
}

var _ contracts.Manager = (*Manager)(nil)

// NewManager expects options with Logger and Clock already set.
func NewManager(options contracts.Options) *Manager {
	if options.MaxPacketSize == 0 {
		options.MaxPacketSize = contracts.DefaultMaxPacketSize
	}
	return &Manager{
		options:  options,
		logger:   options.Logger,
		sessions: make(map[contracts.EndpointID]*Session),
	}
}

// Attach creates the session of a newly connected endpoint. An EndpointInfo without
// MaxPacketSize uses the manager default.
func (m *Manager) Attach(info contracts.EndpointInfo, sink contracts.Sink) (contracts.Session, error) {
	if info.MaxPacketSize == 0 {
		info.MaxPacketSize = m.options.MaxPacketSize
	}

	m.mu.Lock()
	if _, exists := m.sessions[info.ID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", contracts.ErrEndpointAttached, info.ID)
	}
	s := New(info, sink, Config{
		Clock:          m.options.Clock,
		Logger:         m.logger,
		MaxPacketSize:  info.MaxPacketSize,
		TrustTimestamp: m.options.TrustTimestamp == nil || *m.options.TrustTimestamp,
		Filter:         m.options.MessageFilter,
		MaxPending:     m.options.MaxPending,
		Target:         m.target,
	})
	m.sessions[info.ID] = s
	m.mu.Unlock()

	m.logger.Info("BLE-MIDI endpoint attached",
		m.logger.Field().String("endpoint", string(info.ID)),
		m.logger.Field().String("name", info.Name),
		m.logger.Field().String("session", s.InstanceID()),
		m.logger.Field().Int("max_packet_size", s.Info().MaxPacketSize))

	if m.options.OnAttach != nil {
		m.options.OnAttach(s.Info())
	}
	return s, nil
}

// Detach destroys the endpoint's session. Events still waiting for their delivery
// time are dropped.
func (m *Manager) Detach(id contracts.EndpointID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrUnknownEndpoint, id)
	}
	return m.release(s)
}

func (m *Manager) release(s *Session) error {
	err := s.Close()
	if err != nil {
		m.logger.Warn("closing endpoint sink failed",
			m.logger.Field().String("endpoint", string(s.Info().ID)),
			m.logger.Field().Error("error", err))
	}
	m.logger.Info("BLE-MIDI endpoint detached",
		m.logger.Field().String("endpoint", string(s.Info().ID)),
		m.logger.Field().String("session", s.InstanceID()))

	if m.options.OnDetach != nil {
		m.options.OnDetach(s.Info())
	}
	return err
}

// Reconcile brings the attached set in line with present. Detached IDs are sorted;
// attached IDs keep the order of present.
func (m *Manager) Reconcile(present []contracts.Endpoint) (attached, detached []contracts.EndpointID, err error) {
	want := make(map[contracts.EndpointID]struct{}, len(present))
	for _, ep := range present {
		want[ep.Info.ID] = struct{}{}
	}

	m.mu.RLock()
	for id := range m.sessions {
		if _, ok := want[id]; !ok {
			detached = append(detached, id)
		}
	}
	m.mu.RUnlock()
	sort.Slice(detached, func(i, j int) bool { return detached[i] < detached[j] })

	for _, id := range detached {
		err = multierr.Append(err, m.Detach(id))
	}

	for _, ep := range present {
		if _, ok := m.Session(ep.Info.ID); ok {
			continue
		}
		if _, attachErr := m.Attach(ep.Info, ep.Sink); attachErr != nil {
			err = multierr.Append(err, attachErr)
			continue
		}
		attached = append(attached, ep.Info.ID)
	}
	return attached, detached, err
}

// Notify feeds a notification payload to the endpoint's session.
func (m *Manager) Notify(id contracts.EndpointID, payload []byte) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrUnknownEndpoint, id)
	}
	s.Feed(payload)
	return nil
}

func (m *Manager) Session(id contracts.EndpointID) (contracts.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// Endpoints lists the attached endpoints sorted by ID.
func (m *Manager) Endpoints() []contracts.EndpointInfo {
	m.mu.RLock()
	infos := make([]contracts.EndpointInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// StartCapture sets the channel every session delivers its events to.
func (m *Manager) StartCapture(eventChannel chan contracts.Event) {
	if eventChannel == nil {
		m.logger.Error("event channel is nil")
		return
	}
	m.eventChannel.Store(eventChannel)
	m.logger.Info("BLE-MIDI capture started")
}

func (m *Manager) target() chan contracts.Event {
	ch, _ := m.eventChannel.Load().(chan contracts.Event)
	return ch
}

// Close detaches every endpoint and returns the combined sink errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Info().ID < sessions[j].Info().ID })

	var err error
	for _, s := range sessions {
		err = multierr.Append(err, m.release(s))
	}
	return err
}

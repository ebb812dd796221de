// Package monitor tracks connectivity and the depth of the mutation queue.
package monitor

import (
	"sync"
	"time"

	"github.com/lshigami/quizsync/config"
	"github.com/rs/zerolog/log"
)

type Status struct {
	Online     bool      `json:"online"`
	Pending    int64     `json:"pending"`
	LastChange time.Time `json:"last_change"`
}

// Monitor debounces raw connectivity signals. Only the settled state is
// published, and only a settled offline to online transition fires the
// reconnect callbacks.
type Monitor struct {
	mu          sync.Mutex
	raw         bool
	settled     bool
	pending     int64
	lastChange  time.Time
	debounce    time.Duration
	timer       *time.Timer
	onReconnect []func()
	subs        map[chan Status]struct{}
	now         func() time.Time
}

func New(cfg *config.Config) *Monitor {
	return NewMonitor(cfg.Sync.StartOnline, cfg.Sync.Debounce)
}

func NewMonitor(online bool, debounce time.Duration) *Monitor {
	return &Monitor{
		raw:        online,
		settled:    online,
		debounce:   debounce,
		lastChange: time.Now(),
		subs:       map[chan Status]struct{}{},
		now:        time.Now,
	}
}

// IsOnline reports the latest raw signal. Submissions use it so that they stop
// hitting the network as soon as a failure is seen.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	return Status{Online: m.settled, Pending: m.pending, LastChange: m.lastChange}
}

// OnReconnect registers fn to run after each settled reconnect.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, fn)
}

// SetOnline records a raw connectivity event and restarts the debounce window.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	m.raw = online
	if m.debounce <= 0 {
		m.mu.Unlock()
		m.settle()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, m.settle)
	m.mu.Unlock()
}

func (m *Monitor) ReportFailure(err error) {
	if m.IsOnline() {
		log.Warn().Err(err).Msg("Backend unreachable, switching to offline mode")
	}
	m.SetOnline(false)
}

func (m *Monitor) ReportSuccess() {
	if !m.IsOnline() {
		m.SetOnline(true)
	}
}

func (m *Monitor) settle() {
	m.mu.Lock()
	if m.raw == m.settled {
		m.mu.Unlock()
		return
	}
	reconnected := !m.settled && m.raw
	m.settled = m.raw
	m.lastChange = m.now()
	status := m.statusLocked()
	callbacks := append([]func(){}, m.onReconnect...)
	m.broadcastLocked(status)
	m.mu.Unlock()

	log.Info().Bool("online", status.Online).Int64("pending", status.Pending).Msg("Connectivity changed")
	if reconnected {
		for _, fn := range callbacks {
			fn()
		}
	}
}

func (m *Monitor) SetPending(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == n {
		return
	}
	m.pending = n
	m.broadcastLocked(m.statusLocked())
}

// Subscribe returns a channel that always holds the most recent status. The
// returned func unsubscribes and closes the channel.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	ch <- m.statusLocked()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			close(ch)
			m.mu.Unlock()
		})
	}
}

func (m *Monitor) broadcastLocked(s Status) {
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Stop cancels a pending debounce.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
}

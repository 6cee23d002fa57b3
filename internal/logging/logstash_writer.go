package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	errEmptyLogstashAddr = errors.New("logstash: empty address")
	errRetryCooldown     = errors.New("logstash: retry cooldown in effect")
)

// LogstashConfig tunes a LogstashWriter. Zero durations take the defaults
// (2s dial, 1s write, 5s retry cool-down).
type LogstashConfig struct {
	Addr          string
	DialTimeout   time.Duration
	WriteTimeout  time.Duration
	RetryInterval time.Duration
}

// LogstashWriter forwards newline-delimited log lines to a Logstash TCP input.
// Lines are dropped while Logstash is unreachable so logging never blocks
// request handling. Safe for concurrent use.
type LogstashWriter struct {
	cfg  LogstashConfig
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

func NewLogstashWriter(cfg LogstashConfig) (*LogstashWriter, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errEmptyLogstashAddr
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	return &LogstashWriter{cfg: cfg, dial: net.DialTimeout}, nil
}

// Write implements io.Writer. It always reports the full length as written
// unless the writer is closed.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	line := make([]byte, 0, len(p)+1)
	line = append(line, p...)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.connectLocked(); err != nil {
		return len(p), nil
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout))
	if _, err := w.conn.Write(line); err != nil {
		w.dropLocked()
		w.nextRetry = time.Now().Add(w.cfg.RetryInterval)
	}
	return len(p), nil
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.dropLocked()
}

func (w *LogstashWriter) connectLocked() error {
	if w.conn != nil {
		return nil
	}
	if time.Now().Before(w.nextRetry) {
		return errRetryCooldown
	}
	conn, err := w.dial("tcp", w.cfg.Addr, w.cfg.DialTimeout)
	if err != nil {
		w.nextRetry = time.Now().Add(w.cfg.RetryInterval)
		return err
	}
	w.conn = conn
	w.nextRetry = time.Time{}
	return nil
}

func (w *LogstashWriter) dropLocked() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// Package logging mirrors the process log to a Logstash TCP input.
package logging

import (
	"errors"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

var errCoolingDown = errors.New("logstash: waiting before reconnect")

// LogstashWriter forwards newline terminated entries over one TCP connection.
// Writes never fail because Logstash is down: the entry is dropped and the
// next connect attempt waits for the retry interval.
type LogstashWriter struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	dial          func(network, addr string, timeout time.Duration) (net.Conn, error)

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	dropped   int64
	closed    bool
}

type Option func(*LogstashWriter)

func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dialTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.writeTimeout = d }
}

func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.retryInterval = d }
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("logstash: empty address")
	}
	w := &LogstashWriter{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		dial:          net.DialTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	entry := make([]byte, len(p), len(p)+1)
	copy(entry, p)
	if entry[len(entry)-1] != '\n' {
		entry = append(entry, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.connectLocked(); err != nil {
		w.dropped++
		return len(p), nil
	}
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	if _, err := w.conn.Write(entry); err != nil {
		w.dropped++
		w.disconnectLocked()
		w.nextRetry = time.Now().Add(w.retryInterval)
	}
	return len(p), nil
}

// Dropped reports how many entries were discarded while Logstash was
// unreachable.
func (w *LogstashWriter) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.disconnectLocked()
}

func (w *LogstashWriter) connectLocked() error {
	if w.conn != nil {
		return nil
	}
	if !w.nextRetry.IsZero() && time.Now().Before(w.nextRetry) {
		return errCoolingDown
	}
	conn, err := w.dial("tcp", w.addr, w.dialTimeout)
	if err != nil {
		w.nextRetry = time.Now().Add(w.retryInterval)
		return err
	}
	w.conn = conn
	w.nextRetry = time.Time{}
	return nil
}

func (w *LogstashWriter) disconnectLocked() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// Setup points the standard logger at stdout, plus Logstash when addr is set.
// The returned closer is a no-op without Logstash.
func Setup(service, addr string) io.Closer {
	log.SetFlags(log.LstdFlags | log.LUTC)
	log.SetPrefix(service + " ")
	if strings.TrimSpace(addr) == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil)
	}
	writer, err := NewLogstashWriter(addr)
	if err != nil {
		log.SetOutput(os.Stdout)
		log.Printf("logstash disabled: %v", err)
		return io.NopCloser(nil)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, writer))
	log.Printf("mirroring logs to logstash at %s", addr)
	return writer
}

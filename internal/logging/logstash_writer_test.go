package logging

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"
)

func TestLogstashWriterForwardsLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	lines := make(chan string, 2)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	w, err := NewLogstashWriter(ln.Addr().String())
	if err != nil {
		t.Fatalf("NewLogstashWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte(`{"event":"booking.created"}`)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	select {
	case got := <-lines:
		if got != `{"event":"booking.created"}` {
			t.Fatalf("unexpected line %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("line never reached the listener")
	}
}

func TestLogstashWriterDropsWhileUnreachable(t *testing.T) {
	dials := 0
	w, err := NewLogstashWriter("logstash:5000", WithRetryInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewLogstashWriter: %v", err)
	}
	w.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	for i := 0; i < 3; i++ {
		n, err := w.Write([]byte("entry"))
		if err != nil || n != len("entry") {
			t.Fatalf("write must not fail while logstash is down: %d %v", n, err)
		}
	}
	if dials != 1 {
		t.Fatalf("expected a single dial inside the retry window, got %d", dials)
	}
	if w.Dropped() != 3 {
		t.Fatalf("expected 3 dropped entries, got %d", w.Dropped())
	}

	_ = w.Close()
	if _, err := w.Write([]byte("late")); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestNewLogstashWriterRequiresAddress(t *testing.T) {
	if _, err := NewLogstashWriter("  "); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

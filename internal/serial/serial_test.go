package serial

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// memPort is an in-memory port that records each Write call separately.
type memPort struct {
	writes   [][]byte
	short    bool
	writeErr error
	drains   int
	closed   bool
}

func (m *memPort) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	if m.short {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (m *memPort) Drain() error {
	m.drains++
	return nil
}

func (m *memPort) Close() error {
	m.closed = true
	return nil
}

func TestPortSendWireFormat(t *testing.T) {
	mp := &memPort{}
	p := newPort("test0", mp)

	if err := p.Send(logic.CommandStop); err != nil {
		t.Fatalf("Send STOP: %v", err)
	}
	if err := p.Send(logic.CommandContinue); err != nil {
		t.Fatalf("Send CONTINUE: %v", err)
	}

	want := [][]byte{[]byte("STOP\n"), []byte("CONTINUE\n")}
	if len(mp.writes) != len(want) {
		t.Fatalf("expected %d writes (one per command), got %d", len(want), len(mp.writes))
	}
	for i := range want {
		if !bytes.Equal(mp.writes[i], want[i]) {
			t.Errorf("write %d: got %q, want %q", i, mp.writes[i], want[i])
		}
	}
	if mp.drains != 2 {
		t.Errorf("expected drain after each write, got %d", mp.drains)
	}
}

func TestPortSendShortWrite(t *testing.T) {
	p := newPort("test0", &memPort{short: true})

	err := p.Send(logic.CommandStop)
	if !errors.Is(err, ErrShortWrite) {
		t.Errorf("expected ErrShortWrite, got %v", err)
	}
}

func TestPortSendWriteError(t *testing.T) {
	cause := errors.New("device unplugged")
	p := newPort("test0", &memPort{writeErr: cause})

	err := p.Send(logic.CommandStop)
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}

func TestPortClose(t *testing.T) {
	mp := &memPort{}
	p := newPort("test0", mp)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mp.closed {
		t.Error("expected underlying port closed")
	}
	// Second close is a no-op.
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if p.Name() != "test0" {
		t.Errorf("Name: got %q", p.Name())
	}
}

func TestFakeChannel(t *testing.T) {
	f := NewFakeChannel()

	if err := f.Send(logic.CommandStop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Sent) != 1 || f.Sent[0] != logic.CommandStop {
		t.Errorf("expected [STOP], got %v", f.Sent)
	}
	if string(f.Wire[0]) != "STOP\n" {
		t.Errorf("wire: got %q", f.Wire[0])
	}

	f.SendError = errors.New("simulated error")
	if err := f.Send(logic.CommandContinue); err == nil {
		t.Error("expected error")
	}
	if len(f.Sent) != 1 {
		t.Errorf("failed send should not be recorded, got %v", f.Sent)
	}

	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Sent != nil || f.Closed || f.SendError != nil {
		t.Error("Reset should clear state")
	}
}

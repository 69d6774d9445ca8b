package serial

import (
	"fmt"
	"time"

	bugst "go.bug.st/serial"

	"github.com/sweeney/marker-interlock/internal/logger"
	"github.com/sweeney/marker-interlock/internal/logic"
)

// port is the subset of bugst.Port the channel uses.
type port interface {
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

var _ Channel = (*Port)(nil)

// Port sends commands over a serial line.
type Port struct {
	name string
	port port
}

// Open opens the named serial port at baud (8N1) and waits settle for the
// controller to come out of reset. Most Arduino boards reboot when the port
// is opened and drop anything written during the bootloader window.
func Open(name string, baud int, settle time.Duration) (*Port, error) {
	mode := &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}

	if settle > 0 {
		logger.Named("serial").Info().Str("port", name).Dur("settle", settle).Msg("waiting for controller reset")
		time.Sleep(settle)
	}

	return newPort(name, p), nil
}

func newPort(name string, p port) *Port {
	return &Port{name: name, port: p}
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.name
}

// Send writes the command and blocks until it has been transmitted.
func (p *Port) Send(cmd logic.Command) error {
	wire := cmd.Wire()
	n, err := p.port.Write(wire)
	if err != nil {
		return fmt.Errorf("write %s to %s: %w", cmd, p.name, err)
	}
	if n != len(wire) {
		return fmt.Errorf("write %s to %s: %d of %d bytes: %w", cmd, p.name, n, len(wire), ErrShortWrite)
	}
	if err := p.port.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", p.name, err)
	}
	return nil
}

// Close releases the serial port.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", p.name, err)
	}
	return nil
}

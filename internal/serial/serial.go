// Package serial provides the command channel to the actuator controller.
// The real implementation writes line-delimited commands to a serial port.
// The fake implementation allows testing without hardware.
package serial

import (
	"errors"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// Channel transmits interlock commands to the external controller.
type Channel interface {
	// Send writes the command and its delimiter in a single write.
	// There is no acknowledgement; a nil error means the bytes were written.
	Send(cmd logic.Command) error

	// Close releases the port.
	Close() error
}

// ErrShortWrite is returned when the port accepted only part of a command.
var ErrShortWrite = errors.New("serial: short write")

// Defaults for the reference Arduino controller.
const (
	DefaultPort = "/dev/ttyACM0"
	DefaultBaud = 9600
)

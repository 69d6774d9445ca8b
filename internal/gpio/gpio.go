// Package gpio provides the operator stop button with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Button reads a momentary push button wired between a pin and ground.
type Button interface {
	// Pressed reports whether the button is currently held down.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for the Raspberry Pi wiring.
const (
	DefaultChip = "gpiochip0"
	NoPin       = -1 // stop button disabled
)

// NoButton is a Button that is never pressed. Used when no pin is configured.
type NoButton struct{}

// Pressed always returns false.
func (NoButton) Pressed() (bool, error) { return false, nil }

// Close does nothing.
func (NoButton) Close() error { return nil }

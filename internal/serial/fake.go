package serial

import "github.com/sweeney/marker-interlock/internal/logic"

// FakeChannel records sent commands for test assertions.
type FakeChannel struct {
	// Sent contains every command that was written successfully.
	Sent []logic.Command

	// Wire contains the raw bytes of every successful write.
	Wire [][]byte

	// SendError, if set, will be returned by Send and nothing is recorded.
	SendError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeChannel creates a FakeChannel for testing.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{}
}

// Send records the command.
func (f *FakeChannel) Send(cmd logic.Command) error {
	if f.SendError != nil {
		return f.SendError
	}
	f.Sent = append(f.Sent, cmd)
	f.Wire = append(f.Wire, cmd.Wire())
	return nil
}

// Close marks the channel as closed.
func (f *FakeChannel) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded commands.
func (f *FakeChannel) Reset() {
	f.Sent = nil
	f.Wire = nil
	f.SendError = nil
	f.Closed = false
}

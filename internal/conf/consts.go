// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 44100 // Sample rate used for capture and export
	BitDepth    = 16    // Bit depth of captured and exported audio
	NumChannels = 1     // Number of channels captured from the microphone

	// TickInterval is the cadence of the display-only elapsed counter
	// during an active capture session, in milliseconds.
	TickIntervalMs = 250
)

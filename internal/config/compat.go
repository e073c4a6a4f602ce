// SPDX-License-Identifier: MIT
package config

// DeviceID returns the output device ID.
func (c *Config) DeviceID() int {
	return c.Audio.OutputDevice
}

// Channels returns the number of output channels.
func (c *Config) Channels() int {
	return c.Audio.OutputChannels
}

// FramesPerBuffer returns the frames per buffer.
func (c *Config) FramesPerBuffer() int {
	return c.Audio.FramesPerBuffer
}

// SampleRate returns the sample rate.
func (c *Config) SampleRate() float64 {
	return c.Audio.SampleRate
}

// LowLatencyMode returns whether to use low latency mode.
func (c *Config) LowLatencyMode() bool {
	return c.Audio.LowLatency
}

package transport

import "spettro/internal/log"

// LoggingTransport implements Transport by logging data at debug level
// instead of sending it anywhere. Used as the telemetry sink when a
// developer runs with --debug and no WebSocket client is configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Infof("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs data at debug level. Never fails.
func (lt *LoggingTransport) Send(data interface{}) error {
	log.Debugf("transport: %+v", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debugf("transport: LoggingTransport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)

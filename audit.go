package goGuard

import (
	"io"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"go.uber.org/zap"
)

// NewChannelSink returns a sink that buffers events into a channel of the
// given size. Read them with Events().
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing newline-delimited JSON to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink returns a sink logging under the "audit" name of logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

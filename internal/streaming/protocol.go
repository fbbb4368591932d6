// Package streaming manages the fan-out of one encoded stream to multiple
// destinations and retunes the encoder bitrate from measured throughput.
package streaming

import (
	"fmt"

	"scenecast/internal/pipeline"
)

// Endpoint is one streaming destination. Each variant knows the muxer and
// sink element kinds its branch needs and how to configure the sink.
type Endpoint interface {
	// Protocol returns the short protocol name (rtmp, srt, hls).
	Protocol() string
	// Target returns the destination location for logs and events.
	Target() string

	muxKind() string
	sinkKind() string
	configureSink(sink pipeline.Node)
}

// RTMP streams to an RTMP ingest location.
type RTMP struct {
	Location string
}

// Protocol implements Endpoint.
func (r RTMP) Protocol() string { return "rtmp" }

// Target implements Endpoint.
func (r RTMP) Target() string   { return r.Location }
func (r RTMP) muxKind() string  { return "flvmux" }
func (r RTMP) sinkKind() string { return "rtmpsink" }
func (r RTMP) configureSink(sink pipeline.Node) {
	sink.SetProperty("location", r.Location)
}

// SRT streams to an SRT uri.
type SRT struct {
	URI string
}

// Protocol implements Endpoint.
func (s SRT) Protocol() string { return "srt" }

// Target implements Endpoint.
func (s SRT) Target() string   { return s.URI }
func (s SRT) muxKind() string  { return "mpegtsmux" }
func (s SRT) sinkKind() string { return "srtsink" }
func (s SRT) configureSink(sink pipeline.Node) {
	sink.SetProperty("uri", s.URI)
}

// HLS writes MPEG-TS segments and a playlist into a directory.
type HLS struct {
	Dir string
}

// Protocol implements Endpoint.
func (h HLS) Protocol() string { return "hls" }

// Target implements Endpoint.
func (h HLS) Target() string   { return h.Dir }
func (h HLS) muxKind() string  { return "mpegtsmux" }
func (h HLS) sinkKind() string { return "hlssink" }
func (h HLS) configureSink(sink pipeline.Node) {
	sink.SetProperty("location", fmt.Sprintf("%s/segment_%%05d.ts", h.Dir))
	sink.SetProperty("playlist-location", fmt.Sprintf("%s/playlist.m3u8", h.Dir))
}

// Package remote carries simulation commands over a WebSocket. The
// simulation side runs a Client that dials a driver; the driver side runs a
// Server that accepts one simulation at a time and exposes an API for
// configuring it, dispensing dye and reading back color statistics.
package remote

import (
	"errors"

	"github.com/pthm-cable/inkflow/sim"
)

// DefaultPort is the port the driver listens on.
const DefaultPort = 8030

// Command types sent by the driver.
const (
	TypeUpdateConfig                  = "updateConfig"
	TypeClear                         = "clear"
	TypeCenterSplat                   = "centerSplat"
	TypeComputeAverageColor           = "computeAverageColor"
	TypeComputeColorVariance          = "computeColorVariance"
	TypeComputeColorStandardDeviation = "computeColorStandardDeviation"
)

// Reply types sent by the simulation.
const (
	TypeAverageColor           = "averageColor"
	TypeColorVariance          = "colorVariance"
	TypeColorStandardDeviation = "colorStandardDeviation"
)

var (
	// ErrUnknownCommand is returned for a message type the receiver does not handle.
	ErrUnknownCommand = errors.New("unknown command type")
	// ErrNotConnected is returned when a query needs a simulation and none is connected.
	ErrNotConnected = errors.New("no simulation connected")
)

// Message is the JSON envelope for every command and reply. Only the fields
// relevant to Type are set.
type Message struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`

	Color    *sim.RGB `json:"color,omitempty"`
	Variance *sim.RGB `json:"variance,omitempty"`
	StdDev   *sim.RGB `json:"stdDev,omitempty"`
}

// replyFor maps a statistics query to its reply type.
func replyFor(query string) (string, bool) {
	switch query {
	case TypeComputeAverageColor:
		return TypeAverageColor, true
	case TypeComputeColorVariance:
		return TypeColorVariance, true
	case TypeComputeColorStandardDeviation:
		return TypeColorStandardDeviation, true
	}
	return "", false
}

// statsReply builds the reply to a statistics query.
func statsReply(replyType string, stats sim.ColorStats) Message {
	msg := Message{Type: replyType}
	switch replyType {
	case TypeAverageColor:
		msg.Color = &stats.Average
	case TypeColorVariance:
		msg.Variance = &stats.Variance
	case TypeColorStandardDeviation:
		msg.StdDev = &stats.StdDev
	}
	return msg
}

// rgb returns the triple carried by a reply.
func (m Message) rgb() (sim.RGB, bool) {
	var p *sim.RGB
	switch m.Type {
	case TypeAverageColor:
		p = m.Color
	case TypeColorVariance:
		p = m.Variance
	case TypeColorStandardDeviation:
		p = m.StdDev
	}
	if p == nil {
		return sim.RGB{}, false
	}
	return *p, true
}

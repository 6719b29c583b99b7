// Package protocol defines the plot command model and the fixed-width ASCII
// wire format spoken between plotting clients and the plotd daemon. It can be
// used externally to build additional senders or integrations.
//
// A message is, in order: target string, kind int, float vector count, int
// vector count, string count, then that many (name, value) pairs for floats,
// ints and strings. Every int is 10 ASCII bytes, every float 11, and strings
// are prefixed by one int giving their byte length.
package protocol

import (
	"fmt"
	"strings"
	"time"
)

// Field widths of the wire format.
const (
	IntWidth   = 10
	FloatWidth = 11
)

// DefaultReceiveTimeout bounds how long a single byte run may take to arrive.
const DefaultReceiveTimeout = 10 * time.Second

// Ack is sent back to the client once a full command has been decoded.
const Ack = "Got cmd!\n\r"

// DefaultTarget is the target of a freshly created Command.
const DefaultTarget = "None"

// Kind is the category of a Command.
type Kind int32

// Command kinds as numbered on the wire.
const (
	KindNone Kind = iota
	KindPoints
	KindTitle
	KindAxisLabels
	KindClear
	KindDebug
)

var kindNames = [...]string{
	KindNone:       "None",
	KindPoints:     "Points",
	KindTitle:      "Title",
	KindAxisLabels: "AxisLabels",
	KindClear:      "Clear",
	KindDebug:      "Debug",
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= KindNone && k <= KindDebug
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown command kind: %q", s)
}

package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Limits caps the sizes a Decoder accepts before allocating.
type Limits struct {
	MaxStringLen int `mapstructure:"max_string_len"` // bytes per string
	MaxVectorLen int `mapstructure:"max_vector_len"` // elements per vector
	MaxEntries   int `mapstructure:"max_entries"`    // named entries per section
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxStringLen: 1 << 20,
		MaxVectorLen: 4 << 20,
		MaxEntries:   4096,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxStringLen <= 0 {
		l.MaxStringLen = def.MaxStringLen
	}
	if l.MaxVectorLen <= 0 {
		l.MaxVectorLen = def.MaxVectorLen
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = def.MaxEntries
	}
	return l
}

// deadliner is implemented by net.Conn and lets the decoder bound reads.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Decoder reads fixed-width fields and whole commands from a stream.
//
// When the underlying reader supports read deadlines the receive timeout is
// enforced per byte run: all bytes of a run must arrive within the window.
// Plain readers are read until they run dry.
type Decoder struct {
	r       io.Reader
	timeout time.Duration
	limits  Limits
}

// NewDecoder returns a Decoder reading from r. A non-positive timeout selects
// DefaultReceiveTimeout; zero limits select DefaultLimits.
func NewDecoder(r io.Reader, timeout time.Duration, limits Limits) *Decoder {
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}
	return &Decoder{
		r:       r,
		timeout: timeout,
		limits:  limits.withDefaults(),
	}
}

// ReadBytes reads exactly n bytes. A run that does not complete in time, or
// that is cut short by the peer, fails with ErrTimeout.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrMalformed, n)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}

	if dl, ok := d.r.(deadliner); ok {
		if err := dl.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
		defer dl.SetReadDeadline(time.Time{})
	}

	read, err := io.ReadFull(d.r, buf)
	if err == nil {
		return buf, nil
	}
	if isTimeout(err) {
		return nil, fmt.Errorf("%w: got %d of %d bytes within %s", ErrTimeout, read, n, d.timeout)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: peer closed after %d of %d bytes", ErrTimeout, read, n)
	}
	return nil, fmt.Errorf("read %d bytes: %w", n, err)
}

// ReadInt reads one integer field.
func (d *Decoder) ReadInt() (int32, error) {
	b, err := d.ReadBytes(IntWidth)
	if err != nil {
		return 0, err
	}
	return parseInt(b)
}

// ReadFloat reads one float field.
func (d *Decoder) ReadFloat() (float32, error) {
	b, err := d.ReadBytes(FloatWidth)
	if err != nil {
		return 0, err
	}
	return parseFloat(b)
}

// ReadString reads a length-prefixed ASCII string. A zero length yields ""
// without reading further.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLen("string length", d.limits.MaxStringLen)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := d.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return decodeASCII(b), nil
}

// ReadIntVector reads a length-prefixed run of integer fields.
func (d *Decoder) ReadIntVector() ([]int32, error) {
	n, err := d.readLen("int vector length", d.limits.MaxVectorLen)
	if err != nil {
		return nil, err
	}
	b, err := d.ReadBytes(n * IntWidth)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = parseInt(b[i*IntWidth : (i+1)*IntWidth]); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// ReadFloatVector reads a length-prefixed run of float fields.
func (d *Decoder) ReadFloatVector() ([]float32, error) {
	n, err := d.readLen("float vector length", d.limits.MaxVectorLen)
	if err != nil {
		return nil, err
	}
	b, err := d.ReadBytes(n * FloatWidth)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		if out[i], err = parseFloat(b[i*FloatWidth : (i+1)*FloatWidth]); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// ReadCommand decodes one complete message. Any error leaves nothing usable
// behind; the caller should drop the connection.
func (d *Decoder) ReadCommand() (*Command, error) {
	cmd := NewCommand()

	target, err := d.ReadString()
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	cmd.SetTarget(target)

	rawKind, err := d.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("kind: %w", err)
	}
	kind := Kind(rawKind)
	if !kind.Valid() {
		return nil, fmt.Errorf("kind: %w: unknown kind %d", ErrMalformed, rawKind)
	}
	cmd.SetKind(kind)

	floatCount, err := d.readLen("float vector count", d.limits.MaxEntries)
	if err != nil {
		return nil, err
	}
	intCount, err := d.readLen("int vector count", d.limits.MaxEntries)
	if err != nil {
		return nil, err
	}
	stringCount, err := d.readLen("string count", d.limits.MaxEntries)
	if err != nil {
		return nil, err
	}

	for i := 0; i < floatCount; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("float vector %d name: %w", i, err)
		}
		v, err := d.ReadFloatVector()
		if err != nil {
			return nil, fmt.Errorf("float vector %q: %w", name, err)
		}
		cmd.SetFloatVector(name, v)
	}

	for i := 0; i < intCount; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("int vector %d name: %w", i, err)
		}
		v, err := d.ReadIntVector()
		if err != nil {
			return nil, fmt.Errorf("int vector %q: %w", name, err)
		}
		cmd.SetIntVector(name, v)
	}

	for i := 0; i < stringCount; i++ {
		name, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("string %d name: %w", i, err)
		}
		s, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("string %q: %w", name, err)
		}
		cmd.SetString(name, s)
	}

	return cmd, nil
}

// readLen reads a count or length field and checks it against limit.
func (d *Decoder) readLen(what string, limit int) (int, error) {
	v, err := d.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: %w: negative value %d", what, ErrMalformed, v)
	}
	if int(v) > limit {
		return 0, fmt.Errorf("%s: %w: %d exceeds limit %d", what, ErrMalformed, v, limit)
	}
	return int(v), nil
}

func parseInt(b []byte) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: int field %q", ErrMalformed, b)
	}
	return int32(v), nil
}

func parseFloat(b []byte) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: float field %q", ErrMalformed, b)
	}
	return float32(v), nil
}

// decodeASCII maps bytes outside 7-bit ASCII to '?'.
func decodeASCII(b []byte) string {
	for i, c := range b {
		if c > 0x7f {
			b[i] = '?'
		}
	}
	return string(b)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

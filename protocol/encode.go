package protocol

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Encoder writes fixed-width fields. It is the sending half of the format and
// is used by clients; the daemon itself only decodes.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteInt writes v right-aligned in IntWidth bytes.
func (e *Encoder) WriteInt(v int32) error {
	s := strconv.FormatInt(int64(v), 10)
	if len(s) > IntWidth {
		return fmt.Errorf("%w: int %d needs %d bytes", ErrFieldOverflow, v, len(s))
	}
	_, err := fmt.Fprintf(e.w, "%*s", IntWidth, s)
	return err
}

// WriteFloat writes v right-aligned in FloatWidth bytes, dropping precision
// when the shortest exact form is too wide.
func (e *Encoder) WriteFloat(v float32) error {
	s, err := formatFloat(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.w, "%*s", FloatWidth, s)
	return err
}

// WriteString writes the byte length of s followed by its bytes.
func (e *Encoder) WriteString(s string) error {
	if err := e.writeLen(len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(e.w, s)
	return err
}

// WriteIntVector writes the element count followed by each element.
func (e *Encoder) WriteIntVector(v []int32) error {
	if err := e.writeLen(len(v)); err != nil {
		return err
	}
	for _, x := range v {
		if err := e.WriteInt(x); err != nil {
			return err
		}
	}
	return nil
}

// WriteFloatVector writes the element count followed by each element.
func (e *Encoder) WriteFloatVector(v []float32) error {
	if err := e.writeLen(len(v)); err != nil {
		return err
	}
	for _, x := range v {
		if err := e.WriteFloat(x); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommand encodes cmd as one message. The message is assembled in
// memory first so a failing field never leaves a partial message on w.
func (e *Encoder) WriteCommand(cmd *Command) error {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.WriteString(cmd.Target()); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if !cmd.Kind().Valid() {
		return fmt.Errorf("kind: %w: unknown kind %d", ErrMalformed, int32(cmd.Kind()))
	}
	if err := enc.WriteInt(int32(cmd.Kind())); err != nil {
		return fmt.Errorf("kind: %w", err)
	}

	floatNames := cmd.FloatVectorNames()
	intNames := cmd.IntVectorNames()
	stringNames := cmd.StringNames()
	for _, n := range []int{len(floatNames), len(intNames), len(stringNames)} {
		if err := enc.writeLen(n); err != nil {
			return fmt.Errorf("counts: %w", err)
		}
	}

	for _, name := range floatNames {
		v, _ := cmd.FloatVector(name)
		if err := enc.WriteString(name); err != nil {
			return fmt.Errorf("float vector %q: %w", name, err)
		}
		if err := enc.WriteFloatVector(v); err != nil {
			return fmt.Errorf("float vector %q: %w", name, err)
		}
	}
	for _, name := range intNames {
		v, _ := cmd.IntVector(name)
		if err := enc.WriteString(name); err != nil {
			return fmt.Errorf("int vector %q: %w", name, err)
		}
		if err := enc.WriteIntVector(v); err != nil {
			return fmt.Errorf("int vector %q: %w", name, err)
		}
	}
	for _, name := range stringNames {
		s, _ := cmd.String(name)
		if err := enc.WriteString(name); err != nil {
			return fmt.Errorf("string %q: %w", name, err)
		}
		if err := enc.WriteString(s); err != nil {
			return fmt.Errorf("string %q: %w", name, err)
		}
	}

	_, err := e.w.Write(buf.Bytes())
	return err
}

func (e *Encoder) writeLen(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: length %d", ErrFieldOverflow, n)
	}
	return e.WriteInt(int32(n))
}

// formatFloat returns the shortest 'g' form of v that fits FloatWidth.
func formatFloat(v float32) (string, error) {
	if s := strconv.FormatFloat(float64(v), 'g', -1, 32); len(s) <= FloatWidth {
		return s, nil
	}
	for prec := 8; prec > 0; prec-- {
		if s := strconv.FormatFloat(float64(v), 'g', prec, 32); len(s) <= FloatWidth {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: float %g", ErrFieldOverflow, v)
}

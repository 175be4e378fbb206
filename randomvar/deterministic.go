package randomvar

import (
	"bufio"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Deterministic cycles through a fixed sequence of values.
type Deterministic struct {
	values []float64
	next   int
}

// NewDeterministic creates a variable that returns the values in order and
// starts over after the last one.
func NewDeterministic(values []float64) *Deterministic {
	v := make([]float64, len(values))
	copy(v, values)

	return &Deterministic{values: v}
}

// LoadDeterministic reads a sequence of whitespace-separated numbers from a
// file.
func LoadDeterministic(path string) (*Deterministic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileOpen, "%s: %v", path, err)
	}
	defer f.Close()

	values := []float64{}
	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrParse,
				"%s: value %d: %q", path, len(values), scanner.Text())
		}

		values = append(values, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(ErrFileOpen, "%s: %v", path, err)
	}

	if len(values) == 0 {
		return nil, errors.Wrapf(ErrFileTruncated, "%s", path)
	}

	return &Deterministic{values: values}, nil
}

// Len returns the length of the sequence.
func (d *Deterministic) Len() int {
	return len(d.values)
}

// Get returns the next value of the sequence. An empty sequence always
// returns 0.
func (d *Deterministic) Get() float64 {
	if len(d.values) == 0 {
		return 0
	}

	if d.next >= len(d.values) {
		d.next = 0
	}

	v := d.values[d.next]
	d.next++

	return v
}

// Min returns the smallest value of the sequence.
func (d *Deterministic) Min() (float64, error) {
	if len(d.values) == 0 {
		return 0, nil
	}

	m := d.values[0]
	for _, v := range d.values[1:] {
		if v < m {
			m = v
		}
	}

	return m, nil
}

// Max returns the largest value of the sequence.
func (d *Deterministic) Max() (float64, error) {
	if len(d.values) == 0 {
		return 0, nil
	}

	m := d.values[0]
	for _, v := range d.values[1:] {
		if v > m {
			m = v
		}
	}

	return m, nil
}

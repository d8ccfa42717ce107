package models

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec int64) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

func TestProgress_Table(t *testing.T) {
	start := at(0)
	end := at(100)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before start", at(-10), 0},
		{"at start", start, 0},
		{"quarter", at(25), 25},
		{"midpoint", at(50), 50},
		{"rounds up", at(67), 67},
		{"at end", end, 100},
		{"after end", at(1000), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Progress(start, end, tc.now))
		})
	}
}

func TestProgress_Rounding(t *testing.T) {
	start := at(0)
	end := at(3)
	assert.Equal(t, 33, Progress(start, end, at(1)))
	assert.Equal(t, 67, Progress(start, end, at(2)))
}

func TestProgress_DegenerateWindow(t *testing.T) {
	assert.Equal(t, 0, Progress(at(10), at(10), at(5)))
	assert.Equal(t, 100, Progress(at(10), at(10), at(10)))
	assert.Equal(t, 0, Progress(at(20), at(10), at(5)))
	assert.Equal(t, 100, Progress(at(20), at(10), at(15)))
}

func TestProgress_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("zero at or before start", prop.ForAll(
		func(start, dur, before int64) bool {
			return Progress(at(start), at(start+dur), at(start-before)) == 0
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("hundred at or after end", prop.ForAll(
		func(start, dur, after int64) bool {
			return Progress(at(start), at(start+dur), at(start+dur+after)) == 100
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("monotonically non-decreasing in now", prop.ForAll(
		func(start, dur, a, b int64) bool {
			if a > b {
				a, b = b, a
			}
			s, e := at(start), at(start+dur)
			return Progress(s, e, at(start+a)) <= Progress(s, e, at(start+b))
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(-2_000_000, 2_000_000),
		gen.Int64Range(-2_000_000, 2_000_000),
	))

	properties.Property("midpoint is fifty", prop.ForAll(
		func(start, dur int64) bool {
			p := Progress(at(start), at(start+dur), at(start+dur/2))
			return p >= 49 && p <= 51
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(2, 1_000_000),
	))

	properties.Property("always within bounds", prop.ForAll(
		func(start, dur, offset int64) bool {
			p := Progress(at(start), at(start+dur), at(start+offset))
			return p >= 0 && p <= 100
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(-1_000, 1_000_000),
		gen.Int64Range(-2_000_000, 2_000_000),
	))

	properties.TestingRun(t)
}

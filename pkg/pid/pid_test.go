package pid

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func expectClose(t *testing.T, what string, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > tolerance {
		t.Errorf("%s = %f, expected %f", what, actual, expected)
	}
}

func TestFirstUpdate(t *testing.T) {
	c := New(DefaultConfig())

	// 0.3*2.5 + 0.7*2.5 + 0.03*2.5
	expectClose(t, "correction", c.Update(4.5, 2.0), 2.575)

	integral, lastError := c.State()
	expectClose(t, "integral", integral, 2.5)
	expectClose(t, "last error", lastError, 2.5)
}

func TestSecondUpdateUsesDerivativeOfError(t *testing.T) {
	c := New(DefaultConfig())
	c.Update(4.5, 2.0)

	// error 1.0, integral 3.5, derivative -1.5
	expectClose(t, "correction", c.Update(4.5, 3.5), 0.3*1.0+0.7*3.5+0.03*-1.5)
}

func TestZeroErrorKeepsIntegral(t *testing.T) {
	c := New(DefaultConfig())
	c.Update(4.5, 5.0)
	c.Update(4.5, 4.5)

	integral, lastError := c.State()
	expectClose(t, "integral", integral, -0.5)
	expectClose(t, "last error", lastError, 0)
}

func TestIntegralGrowsMonotonically(t *testing.T) {
	for _, measured := range []float64{2.0, 5.0} {
		c := New(DefaultConfig())
		last := 0.0
		for i := 0; i < 60; i++ {
			c.Update(4.5, measured)
			integral, _ := c.State()
			if math.Abs(integral) <= math.Abs(last) {
				t.Fatalf("measured=%v: integral magnitude did not grow on call %d: %f -> %f",
					measured, i, last, integral)
			}
			if math.Signbit(integral) != math.Signbit(4.5-measured) {
				t.Fatalf("measured=%v: integral has wrong sign: %f", measured, integral)
			}
			last = integral
		}
	}
}

func TestIntegralLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntegralLimit = 3
	c := New(cfg)
	for i := 0; i < 50; i++ {
		c.Update(4.5, 2.0)
	}
	integral, _ := c.State()
	expectClose(t, "integral", integral, 3)

	for i := 0; i < 50; i++ {
		c.Update(4.5, 7.0)
	}
	integral, _ = c.State()
	expectClose(t, "integral", integral, -3)
}

func TestOutputLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputLimit = 1
	c := New(cfg)
	expectClose(t, "correction", c.Update(4.5, 2.0), 1)
	expectClose(t, "correction", c.Update(4.5, 100), -1)

	// The integral is still unbounded without IntegralLimit.
	integral, _ := c.State()
	expectClose(t, "integral", integral, 2.5-95.5)
}

func TestReset(t *testing.T) {
	c := New(DefaultConfig())
	c.Update(4.5, 2.0)
	c.Reset()
	integral, lastError := c.State()
	if integral != 0 || lastError != 0 {
		t.Errorf("Reset left state %f, %f", integral, lastError)
	}
}

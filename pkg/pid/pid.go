package pid

// Config holds the gains and optional limits for a Controller.
//
// A zero IntegralLimit or OutputLimit disables that limit.  With both limits
// disabled the integral accumulates without bound under a sustained error.
type Config struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	IntegralLimit float64 `yaml:"integral_limit"`
	OutputLimit   float64 `yaml:"output_limit"`
}

// DefaultConfig returns the reference line-following gains with no limits.
func DefaultConfig() Config {
	return Config{
		Kp: 0.3,
		Ki: 0.7,
		Kd: 0.03,
	}
}

// Controller is a discrete PID controller.  The integral is a plain running
// sum of errors and the derivative is the difference from the previous error;
// neither is scaled by the time step.
//
// A Controller is not safe for concurrent use; it is owned by the behaviour
// that calls Update.
type Controller struct {
	cfg Config

	integral  float64
	lastError float64
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Update returns the correction for the given setpoint and measurement.
func (c *Controller) Update(setpoint, measured float64) float64 {
	err := setpoint - measured
	c.integral += err
	if c.cfg.IntegralLimit > 0 {
		c.integral = clamp(c.integral, c.cfg.IntegralLimit)
	}
	derivative := err - c.lastError
	c.lastError = err

	out := c.cfg.Kp*err + c.cfg.Ki*c.integral + c.cfg.Kd*derivative
	if c.cfg.OutputLimit > 0 {
		out = clamp(out, c.cfg.OutputLimit)
	}
	return out
}

// State returns the accumulated integral and the last error seen.
func (c *Controller) State() (integral, lastError float64) {
	return c.integral, c.lastError
}

// Reset zeroes the accumulated state.
func (c *Controller) Reset() {
	c.integral = 0
	c.lastError = 0
}

func (c *Controller) Config() Config {
	return c.cfg
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

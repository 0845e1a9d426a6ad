package driver

// Config holds the Driver's tunables. The zero value is not valid; use
// defaultConfig plus the With* options.
type Config struct {
	Logger           Logger
	ProgressCallback ProgressCallback
	VoltageX10       byte
}

func defaultConfig() Config {
	return Config{
		Logger:     noopLogger{},
		VoltageX10: 33,
	}
}

// Option configures a Driver at construction time.
type Option func(*Config)

// WithLogger sets the logger used for debug/info/error reporting.
//
// Example:
//
//	d := driver.New(p, driver.WithLogger(myLogger))
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithProgressCallback sets a callback invoked when Program/Erase/Verify
// starts and again when it completes; it is not called between blocks.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(c *Config) { c.ProgressCallback = cb }
}

// WithVoltage sets the supply voltage (in tenths of a volt) reported to
// the target during entry. Default is 3.3V.
func WithVoltage(voltageX10 byte) Option {
	return func(c *Config) { c.VoltageX10 = voltageX10 }
}

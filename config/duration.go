package config

import (
	"time"
)

// Duration is a time.Duration written as "30s" or "1m" in config files and
// flags.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a duration string. Empty text leaves the value
// unchanged.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Set implements pflag.Value.
func (d *Duration) Set(raw string) error {
	return d.UnmarshalText([]byte(raw))
}

// Type implements pflag.Value.
func (d *Duration) Type() string {
	return "duration"
}

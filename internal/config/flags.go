package config

import (
	"flag"
	"fmt"
	"strconv"
	"time"
)

type override struct {
	name   string
	usage  string
	isBool bool
	apply  func(c *Config, v string) error
}

// Applied in this order, so -no-cache wins over -cache-dir.
var overrides = []override{
	{name: "source", usage: "content source: wiki or mark", apply: func(c *Config, v string) error {
		c.Source = v
		return nil
	}},
	{name: "base-url", usage: "wiki page URL prefix", apply: func(c *Config, v string) error {
		c.WikiBaseURL = v
		return nil
	}},
	{name: "host", usage: "Mark server host:port for -source mark", apply: func(c *Config, v string) error {
		c.MarkHost = v
		return nil
	}},
	{name: "insecure", usage: "skip TLS certificate verification", isBool: true, apply: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Insecure = b
		return err
	}},
	{name: "limit", usage: "candidates kept per round (negative keeps all)", apply: func(c *Config, v string) error {
		return setInt(&c.Limit, v)
	}},
	{name: "workers", usage: "concurrent fetches per round (0 for one per node)", apply: func(c *Config, v string) error {
		return setInt(&c.Workers, v)
	}},
	{name: "max-rounds", usage: "give up after this many rounds (0 for no limit)", apply: func(c *Config, v string) error {
		return setInt(&c.MaxRounds, v)
	}},
	{name: "timeout", usage: "per-request timeout, e.g. 15s", apply: func(c *Config, v string) error {
		return setDuration(&c.RequestTimeout, v)
	}},
	{name: "resolve-timeout", usage: "deadline for resolving one node, retries included", apply: func(c *Config, v string) error {
		return setDuration(&c.ResolveTimeout, v)
	}},
	{name: "rate", usage: "requests per second per host (0 for no limit)", apply: func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Rate = f
		return err
	}},
	{name: "cache-dir", usage: "cache fetched pages in this directory", apply: func(c *Config, v string) error {
		c.CacheDir = v
		return nil
	}},
	{name: "no-cache", usage: "disable the page cache", isBool: true, apply: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if b {
			c.CacheDir = ""
		}
		return err
	}},
	{name: "log-format", usage: "log format: text or json", apply: func(c *Config, v string) error {
		c.LogFormat = v
		return nil
	}},
	{name: "log-level", usage: "log level: debug, info, warn, error", apply: func(c *Config, v string) error {
		c.LogLevel = v
		return nil
	}},
	{name: "metrics-file", usage: "write Prometheus metrics to this file after each search", apply: func(c *Config, v string) error {
		c.MetricsFile = v
		return nil
	}},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// flagValue records a raw flag value and whether it was given.
type flagValue struct {
	value  string
	isBool bool
	set    bool
}

func (v *flagValue) String() string   { return v.value }
func (v *flagValue) IsBoolFlag() bool { return v.isBool }

func (v *flagValue) Set(s string) error {
	v.value = s
	v.set = true
	return nil
}

// Flags holds the command-line overrides registered on a flag set.
type Flags struct {
	path   string
	values []*flagValue
}

// RegisterFlags adds -config and one flag per overridable setting to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{values: make([]*flagValue, len(overrides))}
	fs.StringVar(&f.path, "config", "", "config file (default ~/.wikirace/config.toml)")
	for i, o := range overrides {
		v := &flagValue{isBool: o.isBool}
		f.values[i] = v
		fs.Var(v, o.name, o.usage)
	}
	return f
}

// Load is the package-level Load with the parsed flags applied last.
func (f *Flags) Load() (*Config, error) {
	return load(f.path, f.apply)
}

func (f *Flags) apply(c *Config) error {
	for i, o := range overrides {
		v := f.values[i]
		if !v.set {
			continue
		}
		if err := o.apply(c, v.value); err != nil {
			return fmt.Errorf("invalid value %q for -%s: %w", v.value, o.name, err)
		}
	}
	return nil
}

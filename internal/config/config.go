package config

import (
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

type Config struct {
	// Target is the domain controller under audit.
	Target string `yaml:"target" validate:"required"`

	// Nameserver is the host:port the DNS registration check queries.
	// Defaults to the target itself on port 53.
	Nameserver string `yaml:"nameserver"`

	Options  Options            `yaml:"options"`
	Tools    Tools              `yaml:"tools"`
	Services map[string]Service `yaml:"services" validate:"dive"`
	Notify   []NotifyTarget     `yaml:"notify"`

	// Schedule is a cron expression used by the start command.
	Schedule string `yaml:"schedule"`
}

type Options struct {
	// Timeout bounds each external tool invocation.
	Timeout string `yaml:"timeout"`

	// OSDrive and NTDSDrive are the logical drives audited for free space.
	OSDrive   string `yaml:"os_drive"`
	NTDSDrive string `yaml:"ntds_drive"`
}

// Tools overrides the paths of the external diagnostic tools. Empty values
// fall back to the bare names on PATH.
type Tools struct {
	Dcdiag   string `yaml:"dcdiag"`
	Wmic     string `yaml:"wmic"`
	Ping     string `yaml:"ping"`
	Dsquery  string `yaml:"dsquery"`
	Netdom   string `yaml:"netdom"`
	Repadmin string `yaml:"repadmin"`
}

type Service struct {
	URL    string            `yaml:"url" validate:"required"`
	Params map[string]string `yaml:"params"`
}

// NotifyTarget handles a plain service name string or an object with
// overrides.
type NotifyTarget struct {
	Service  string            `yaml:"service"`
	Template string            `yaml:"template"`
	Params   map[string]string `yaml:"params"`
}

func (n *NotifyTarget) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		n.Service = str
		return nil
	}

	type notifyAlias NotifyTarget
	var obj notifyAlias
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("notify: must be a service name string or an object with service/template/params")
	}
	*n = NotifyTarget(obj)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks structural constraints and that every notify entry
// references a declared service.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, n := range c.Notify {
		if n.Service == "" {
			return fmt.Errorf("invalid config: notify entry missing service name")
		}
		if _, ok := c.Services[n.Service]; !ok {
			return fmt.Errorf("invalid config: notify references unknown service %q", n.Service)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Nameserver == "" {
		c.Nameserver = c.Target + ":53"
	}
	if c.Options.Timeout == "" {
		c.Options.Timeout = "30s"
	}
	if c.Options.OSDrive == "" {
		c.Options.OSDrive = "C:"
	}
	if c.Options.NTDSDrive == "" {
		c.Options.NTDSDrive = c.Options.OSDrive
	}
}

// Package config provides YAML configuration parsing for statuspoll.
//
// This package lets the statuspoll binary run named wait profiles from a
// file, as an alternative to wiring a poller in Go code.
//
// Example configuration:
//
//	defaults:
//	  interval: 1s
//	  timeout: 10m
//	  max_failures: 5
//
//	profiles:
//	  - name: invoice-delivery
//	    targets: [delivered, "regex:^submitted"]
//	    interval: 2s
//	    source:
//	      type: page
//	      url: ${APP_URL}/invoices
//	      selector: td.status
//	      steps:
//	        - action: click
//	          selector: "#upload"
//	        - action: upload
//	          selector: input[type=file]
//	          value: ./fixtures/invoices.xlsx
//
//	  - name: import-job
//	    targets: [completed]
//	    source:
//	      type: http
//	      url: https://api.example.com/jobs/42
//	      json_path: data.status
//	      headers:
//	        Authorization: Bearer ${API_TOKEN}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file's defaults block nor a profile
// sets a value.
const (
	DefaultInterval    = 1 * time.Second
	DefaultTimeout     = 10 * time.Minute
	DefaultMaxFailures = 5
)

// Source types.
const (
	SourcePage = "page"
	SourceHTTP = "http"
)

// Config is the root configuration structure for statuspoll.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Defaults are the timing values inherited by every profile.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Profiles are the named waits the CLI can run.
	Profiles []ProfileConfig `yaml:"profiles"`
}

// DefaultsConfig holds timing shared by all profiles.
type DefaultsConfig struct {
	Interval    Duration `yaml:"interval"`
	Timeout     Duration `yaml:"timeout"`
	MaxFailures int      `yaml:"max_failures"`
}

// ProfileConfig defines one named wait.
//
// After [Parse], Interval, Timeout and MaxFailures are always set: values
// missing from the profile are copied from the defaults block.
type ProfileConfig struct {
	// Name identifies the profile on the command line.
	Name string `yaml:"name"`

	// Targets are the statuses that end the wait successfully.
	// Each is shorthand ("delivered", "exact:Done", "regex:^fail") or structured.
	Targets []TargetConfig `yaml:"targets"`

	Interval    Duration `yaml:"interval"`
	Timeout     Duration `yaml:"timeout"`
	MaxFailures int      `yaml:"max_failures"`

	// Source describes where the status is read from.
	Source SourceConfig `yaml:"source"`
}

// SourceConfig describes a status source.
type SourceConfig struct {
	// Type is "page" (browser) or "http" (JSON endpoint).
	Type string `yaml:"type"`

	// URL is the page to open or the endpoint to request.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Selector locates the status element (page only).
	Selector string `yaml:"selector"`

	// Headless runs the browser without a window (page only). Defaults to true.
	Headless *bool `yaml:"headless"`

	// ActionTimeout bounds each browser action (page only).
	ActionTimeout Duration `yaml:"action_timeout"`

	// Steps are replayed after opening URL and before polling (page only).
	Steps []StepConfig `yaml:"steps"`

	// JSONPath is the dot-separated field holding the status (http only).
	JSONPath string `yaml:"json_path"`

	// Headers are sent with each request (http only).
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds each request (http only).
	Timeout Duration `yaml:"timeout"`
}

// StepConfig is one browser interaction replayed before polling.
type StepConfig struct {
	Action   string   `yaml:"action"`
	Selector string   `yaml:"selector"`
	Value    string   `yaml:"value"`
	Duration Duration `yaml:"duration"`
}

// TargetConfig specifies how a status is matched.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	- delivered
//	- contains:deliver
//	- exact:Completed
//	- regex:^fail(ed|ure)
//
// Structured object:
//
//	- type: exact
//	  value: Completed
type TargetConfig struct {
	// Type is the match kind: "contains", "exact" or "regex".
	Type string

	// Value is the text or pattern to match.
	Value string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for TargetConfig.
func (t *TargetConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return t.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type  string `yaml:"type"`
			Value string `yaml:"value"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		t.Type = raw.Type
		t.Value = raw.Value
		return nil
	}

	return fmt.Errorf("target must be a string or object, got %v", node.Kind)
}

// parseShorthand parses target shorthand syntax.
//
// Supported formats:
//   - "text" → case-insensitive substring
//   - "contains:text" → case-insensitive substring
//   - "exact:text" → case-insensitive equality
//   - "regex:pattern" → case-insensitive regular expression
//
// A prefix that is not a known type is treated as part of the text, so
// "Step 2: Review" is a substring target.
func (t *TargetConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, ":"); idx != -1 {
		switch kind := s[:idx]; kind {
		case "contains", "exact", "regex":
			t.Type = kind
			t.Value = s[idx+1:]
			return nil
		}
	}

	t.Type = "contains"
	t.Value = s
	return nil
}

// String renders the target in shorthand form.
func (t TargetConfig) String() string {
	return t.Type + ":" + t.Value
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in source URLs, header values and step
// values. Defaults are applied to the defaults block and then inherited by
// each profile.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Defaults.Interval == 0 {
		cfg.Defaults.Interval = Duration(DefaultInterval)
	}
	if cfg.Defaults.Timeout == 0 {
		cfg.Defaults.Timeout = Duration(DefaultTimeout)
	}
	if cfg.Defaults.MaxFailures == 0 {
		cfg.Defaults.MaxFailures = DefaultMaxFailures
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Profile returns the profile called name.
func (c *Config) Profile(name string) (ProfileConfig, error) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return ProfileConfig{}, fmt.Errorf("profile %q not found (available: %s)", name, strings.Join(c.ProfileNames(), ", "))
}

// ProfileNames returns profile names in file order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	d := c.Defaults
	if d.Interval.Duration() <= 0 {
		return fmt.Errorf("defaults: interval must be positive, got %s", d.Interval.Duration())
	}
	if d.Timeout.Duration() <= 0 {
		return fmt.Errorf("defaults: timeout must be positive, got %s", d.Timeout.Duration())
	}
	if d.MaxFailures < 0 {
		return fmt.Errorf("defaults: max_failures must be positive, got %d", d.MaxFailures)
	}

	if len(c.Profiles) == 0 {
		return errors.New("at least one profile must be defined")
	}

	seen := make(map[string]struct{}, len(c.Profiles))
	for i := range c.Profiles {
		p := &c.Profiles[i]

		if p.Name == "" {
			return fmt.Errorf("profiles[%d]: name is required", i)
		}
		if _, exists := seen[p.Name]; exists {
			return fmt.Errorf("profiles[%d]: duplicate profile name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}

		ctx := fmt.Sprintf("profiles[%d] (%s)", i, p.Name)

		if len(p.Targets) == 0 {
			return fmt.Errorf("%s: at least one target is required", ctx)
		}
		for j := range p.Targets {
			if err := validateTarget(p.Targets[j], fmt.Sprintf("%s: targets[%d]", ctx, j)); err != nil {
				return err
			}
		}

		if p.Interval == 0 {
			p.Interval = d.Interval
		}
		if p.Timeout == 0 {
			p.Timeout = d.Timeout
		}
		if p.MaxFailures == 0 {
			p.MaxFailures = d.MaxFailures
		}
		if p.Interval.Duration() < 0 {
			return fmt.Errorf("%s: interval cannot be negative, got %s", ctx, p.Interval.Duration())
		}
		if p.Timeout.Duration() < 0 {
			return fmt.Errorf("%s: timeout cannot be negative, got %s", ctx, p.Timeout.Duration())
		}
		if p.MaxFailures < 0 {
			return fmt.Errorf("%s: max_failures cannot be negative, got %d", ctx, p.MaxFailures)
		}

		if err := p.Source.expandAndValidate(ctx + ": source"); err != nil {
			return err
		}
	}

	return nil
}

// expandAndValidate checks the fields required by the source type.
func (s *SourceConfig) expandAndValidate(ctx string) error {
	if s.URL == "" {
		return fmt.Errorf("%s: url is required", ctx)
	}
	expanded, err := expandEnvVars(s.URL)
	if err != nil {
		return fmt.Errorf("%s: url: %w", ctx, err)
	}
	s.URL = expanded

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", ctx, err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("%s: url must have a scheme", ctx)
	}

	switch s.Type {
	case SourcePage:
		if s.Selector == "" {
			return fmt.Errorf("%s: selector is required for type 'page'", ctx)
		}
		if s.ActionTimeout.Duration() < 0 {
			return fmt.Errorf("%s: action_timeout cannot be negative, got %s", ctx, s.ActionTimeout.Duration())
		}
		for j := range s.Steps {
			step := &s.Steps[j]
			expanded, err := expandEnvVars(step.Value)
			if err != nil {
				return fmt.Errorf("%s: steps[%d]: value: %w", ctx, j, err)
			}
			step.Value = expanded

			if err := step.toStep().Validate(); err != nil {
				return fmt.Errorf("%s: steps[%d]: %w", ctx, j, err)
			}
		}
	case SourceHTTP:
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("%s: url scheme must be http or https, got %q", ctx, parsedURL.Scheme)
		}
		if s.JSONPath == "" {
			return fmt.Errorf("%s: json_path is required for type 'http'", ctx)
		}
		if s.Timeout != 0 && s.Timeout.Duration() < time.Second {
			return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", ctx, s.Timeout.Duration())
		}
		for k, v := range s.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("%s: headers[%s]: %w", ctx, k, err)
			}
			s.Headers[k] = expanded
		}
	case "":
		return fmt.Errorf("%s: type is required ('page' or 'http')", ctx)
	default:
		return fmt.Errorf("%s: unknown type %q (expected 'page' or 'http')", ctx, s.Type)
	}

	return nil
}

// IsHeadless reports whether the browser should run without a window.
func (s SourceConfig) IsHeadless() bool {
	return s.Headless == nil || *s.Headless
}

// validateTarget validates a target configuration.
func validateTarget(t TargetConfig, context string) error {
	if strings.TrimSpace(t.Value) == "" {
		return fmt.Errorf("%s: target value is required", context)
	}

	switch t.Type {
	case "contains", "exact":
	case "regex":
		if _, err := regexp.Compile(t.Value); err != nil {
			return fmt.Errorf("%s: invalid regex %q: %w", context, t.Value, err)
		}
	default:
		return fmt.Errorf("%s: unknown target type %q", context, t.Type)
	}

	return nil
}

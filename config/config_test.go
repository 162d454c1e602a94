package config

import (
	"strings"
	"testing"
	"time"
)

const minimalPage = `
profiles:
  - name: invoices
    targets: [delivered]
    source:
      type: page
      url: https://app.example.com/invoices
      selector: td.status
`

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(minimalPage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Defaults.Interval.Duration() != time.Second {
		t.Errorf("Defaults.Interval = %v, want 1s", cfg.Defaults.Interval.Duration())
	}
	if cfg.Defaults.Timeout.Duration() != 10*time.Minute {
		t.Errorf("Defaults.Timeout = %v, want 10m", cfg.Defaults.Timeout.Duration())
	}
	if cfg.Defaults.MaxFailures != 5 {
		t.Errorf("Defaults.MaxFailures = %d, want 5", cfg.Defaults.MaxFailures)
	}

	if len(cfg.Profiles) != 1 {
		t.Fatalf("len(Profiles) = %d, want 1", len(cfg.Profiles))
	}
	p := cfg.Profiles[0]
	if p.Interval.Duration() != time.Second || p.Timeout.Duration() != 10*time.Minute || p.MaxFailures != 5 {
		t.Errorf("profile timing = %v/%v/%d, want inherited defaults", p.Interval.Duration(), p.Timeout.Duration(), p.MaxFailures)
	}
	if !p.Source.IsHeadless() {
		t.Error("IsHeadless() = false, want true by default")
	}
}

func TestParse_FullPageProfile(t *testing.T) {
	yaml := `
defaults:
  interval: 2s
  timeout: 5m
  max_failures: 3

profiles:
  - name: upload
    targets:
      - completed
      - exact:Failed
      - type: regex
        value: ^error
    interval: 500ms
    source:
      type: page
      url: https://app.example.com/uploads
      selector: "#upload-status"
      headless: false
      action_timeout: 15s
      steps:
        - action: click
          selector: "#new-upload"
        - action: upload
          selector: input[type=file]
          value: /fixtures/ValidforAdmin4.xlsx
        - action: wait
          duration: 1s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	p := cfg.Profiles[0]
	if p.Interval.Duration() != 500*time.Millisecond {
		t.Errorf("Interval = %v, want 500ms", p.Interval.Duration())
	}
	if p.Timeout.Duration() != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m (from defaults)", p.Timeout.Duration())
	}
	if p.MaxFailures != 3 {
		t.Errorf("MaxFailures = %d, want 3 (from defaults)", p.MaxFailures)
	}

	wantTargets := []TargetConfig{
		{Type: "contains", Value: "completed"},
		{Type: "exact", Value: "Failed"},
		{Type: "regex", Value: "^error"},
	}
	if len(p.Targets) != len(wantTargets) {
		t.Fatalf("len(Targets) = %d, want %d", len(p.Targets), len(wantTargets))
	}
	for i, want := range wantTargets {
		if p.Targets[i] != want {
			t.Errorf("Targets[%d] = %+v, want %+v", i, p.Targets[i], want)
		}
	}

	src := p.Source
	if src.IsHeadless() {
		t.Error("IsHeadless() = true, want false")
	}
	if src.ActionTimeout.Duration() != 15*time.Second {
		t.Errorf("ActionTimeout = %v, want 15s", src.ActionTimeout.Duration())
	}
	if len(src.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(src.Steps))
	}
	if src.Steps[1].Value != "/fixtures/ValidforAdmin4.xlsx" {
		t.Errorf("Steps[1].Value = %q", src.Steps[1].Value)
	}
	if src.Steps[2].Duration.Duration() != time.Second {
		t.Errorf("Steps[2].Duration = %v, want 1s", src.Steps[2].Duration.Duration())
	}
}

func TestParse_HTTPProfile(t *testing.T) {
	yaml := `
profiles:
  - name: import-job
    targets: [completed]
    timeout: 30s
    source:
      type: http
      url: https://api.example.com/jobs/42
      json_path: data.status
      timeout: 5s
      headers:
        Accept-Language: en
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	src := cfg.Profiles[0].Source
	if src.JSONPath != "data.status" {
		t.Errorf("JSONPath = %q, want data.status", src.JSONPath)
	}
	if src.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", src.Timeout.Duration())
	}
	if src.Headers["Accept-Language"] != "en" {
		t.Errorf("Headers[Accept-Language] = %q, want en", src.Headers["Accept-Language"])
	}
}

func TestParse_TargetShorthand(t *testing.T) {
	tests := []struct {
		input     string
		wantType  string
		wantValue string
	}{
		{"delivered", "contains", "delivered"},
		{"contains:deliver", "contains", "deliver"},
		{"exact:Completed", "exact", "Completed"},
		{"regex:^fail(ed|ure)$", "regex", "^fail(ed|ure)$"},
		{"Step 2: Review", "contains", "Step 2: Review"},
		{"  In Progress  ", "contains", "In Progress"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var tc TargetConfig
			if err := tc.parseShorthand(tt.input); err != nil {
				t.Fatalf("parseShorthand() error = %v", err)
			}
			if tc.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tc.Type, tt.wantType)
			}
			if tc.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", tc.Value, tt.wantValue)
			}
		})
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test (Go 1.17+)
	t.Setenv("TEST_API_HOST", "api.test.com")
	t.Setenv("TEST_API_TOKEN", "secret123")
	t.Setenv("TEST_FIXTURES", "/srv/fixtures")

	yaml := `
profiles:
  - name: api
    targets: [done]
    source:
      type: http
      url: https://${TEST_API_HOST}/jobs/1
      json_path: status
      headers:
        Authorization: "Bearer ${TEST_API_TOKEN}"
  - name: page
    targets: [done]
    source:
      type: page
      url: https://${TEST_API_HOST}/ui
      selector: "#status"
      steps:
        - action: upload
          selector: input[type=file]
          value: ${TEST_FIXTURES}/a.xlsx
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	api := cfg.Profiles[0].Source
	if api.URL != "https://api.test.com/jobs/1" {
		t.Errorf("URL = %q, want https://api.test.com/jobs/1", api.URL)
	}
	if api.Headers["Authorization"] != "Bearer secret123" {
		t.Errorf("Headers[Authorization] = %q, want 'Bearer secret123'", api.Headers["Authorization"])
	}
	if got := cfg.Profiles[1].Source.Steps[0].Value; got != "/srv/fixtures/a.xlsx" {
		t.Errorf("Steps[0].Value = %q, want /srv/fixtures/a.xlsx", got)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
profiles:
  - name: Test
    targets: [ok]
    source:
      type: page
      url: https://${UNSET_VAR:-fallback.example.com}/status
      selector: "#s"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Profiles[0].Source.URL != "https://fallback.example.com/status" {
		t.Errorf("URL = %q, want https://fallback.example.com/status", cfg.Profiles[0].Source.URL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	yaml := `
profiles:
  - name: Test
    targets: [ok]
    source:
      type: page
      url: https://${MISSING_VAR}/status
      selector: "#s"
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should mention MISSING_VAR: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "no profiles",
			yaml:        `defaults: {interval: 1s}`,
			wantErrLike: "at least one profile",
		},
		{
			name: "profile missing name",
			yaml: `
profiles:
  - targets: [ok]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "name is required",
		},
		{
			name: "duplicate profile",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: page, url: "https://x", selector: "#s"}
  - name: a
    targets: [ok]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: `duplicate profile name "a"`,
		},
		{
			name: "no targets",
			yaml: `
profiles:
  - name: a
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "at least one target",
		},
		{
			name: "blank target",
			yaml: `
profiles:
  - name: a
    targets: ["exact:"]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "target value is required",
		},
		{
			name: "bad regex",
			yaml: `
profiles:
  - name: a
    targets: ["regex:(unclosed"]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "invalid regex",
		},
		{
			name: "unknown structured target",
			yaml: `
profiles:
  - name: a
    targets: [{type: glob, value: "*ok"}]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: `unknown target type "glob"`,
		},
		{
			name: "negative interval",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    interval: -1s
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "interval cannot be negative",
		},
		{
			name: "negative max failures",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    max_failures: -2
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "max_failures cannot be negative",
		},
		{
			name: "non-positive default timeout",
			yaml: `
defaults:
  timeout: -5s
profiles:
  - name: a
    targets: [ok]
    source: {type: page, url: "https://x", selector: "#s"}
`,
			wantErrLike: "defaults: timeout must be positive",
		},
		{
			name: "missing source type",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {url: "https://x", selector: "#s"}
`,
			wantErrLike: "type is required",
		},
		{
			name: "unknown source type",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: grpc, url: "https://x"}
`,
			wantErrLike: `unknown type "grpc"`,
		},
		{
			name: "missing url",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: page, selector: "#s"}
`,
			wantErrLike: "url is required",
		},
		{
			name: "url without scheme",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: page, url: "app.example.com", selector: "#s"}
`,
			wantErrLike: "url must have a scheme",
		},
		{
			name: "page missing selector",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: page, url: "https://x"}
`,
			wantErrLike: "selector is required",
		},
		{
			name: "http with file scheme",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: http, url: "file:///tmp/status.json", json_path: status}
`,
			wantErrLike: "url scheme must be http or https",
		},
		{
			name: "http missing json path",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: http, url: "https://x"}
`,
			wantErrLike: "json_path is required",
		},
		{
			name: "http sub-second timeout",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source: {type: http, url: "https://x", json_path: status, timeout: 100ms}
`,
			wantErrLike: "timeout must be at least 1s",
		},
		{
			name: "unknown step action",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source:
      type: page
      url: "https://x"
      selector: "#s"
      steps:
        - action: hover
          selector: "#menu"
`,
			wantErrLike: `steps[0]: unknown action "hover"`,
		},
		{
			name: "upload step without file",
			yaml: `
profiles:
  - name: a
    targets: [ok]
    source:
      type: page
      url: "https://x"
      selector: "#s"
      steps:
        - action: upload
          selector: input[type=file]
`,
			wantErrLike: "upload requires a selector and a file path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	yaml := `
this is not: valid: yaml: at all
  - broken
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `
defaults:
  interval: not-a-duration
` + minimalPage
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %q, want to contain 'invalid duration'", err.Error())
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"hours", "1h", 1 * time.Hour, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
profiles:
  - name: Test
    targets: [ok]
    timeout: ` + tt.input + `
    source: {type: page, url: "https://x", selector: "#s"}
`
			cfg, err := Parse([]byte(yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Profiles[0].Timeout.Duration() != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Profiles[0].Timeout.Duration(), tt.want)
			}
		})
	}
}

func TestConfig_Profile(t *testing.T) {
	yaml := `
profiles:
  - name: first
    targets: [ok]
    source: {type: page, url: "https://x", selector: "#s"}
  - name: second
    targets: [done]
    source: {type: http, url: "https://x", json_path: status}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	p, err := cfg.Profile("second")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.Source.Type != SourceHTTP {
		t.Errorf("Source.Type = %q, want http", p.Source.Type)
	}

	_, err = cfg.Profile("third")
	if err == nil {
		t.Fatal("Profile() expected error for unknown name")
	}
	if !strings.Contains(err.Error(), "available: first, second") {
		t.Errorf("error = %q, want available profile list", err.Error())
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

package config

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"compound", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "500ms", 500 * time.Millisecond, false},
		{"bare integer is seconds", "30", 30 * time.Second, false},
		{"empty is zero", "", 0, false},
		{"garbage", "soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDurationString(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDurationString(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDurationString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}

	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{"duration string", `d: 250ms`, 250 * time.Millisecond},
		{"quoted integer", `d: "45"`, 45 * time.Second},
		{"bare integer", `d: 45`, 45 * time.Second},
		{"float seconds", `d: 1.5`, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.D = 0
			if err := yaml.Unmarshal([]byte(tt.input), &out); err != nil {
				t.Fatalf("yaml.Unmarshal: %v", err)
			}
			if out.D.Std() != tt.want {
				t.Errorf("D = %v, want %v", out.D.Std(), tt.want)
			}
		})
	}

	if err := yaml.Unmarshal([]byte(`d: soon`), &out); err == nil {
		t.Error("yaml.Unmarshal accepted a garbage duration")
	}

	// Marshals back to the canonical duration string.
	out.D = Duration(90 * time.Second)
	b, err := yaml.Marshal(out)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	if string(b) != "d: 1m30s\n" {
		t.Errorf("yaml.Marshal = %q, want %q", b, "d: 1m30s\n")
	}
}

func TestDuration_JSON(t *testing.T) {
	var out struct {
		D Duration `json:"d"`
	}

	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{"duration string", `{"d":"250ms"}`, 250 * time.Millisecond},
		{"number is seconds", `{"d":45}`, 45 * time.Second},
		{"fractional seconds", `{"d":0.5}`, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.D = 0
			if err := json.Unmarshal([]byte(tt.input), &out); err != nil {
				t.Fatalf("json.Unmarshal: %v", err)
			}
			if out.D.Std() != tt.want {
				t.Errorf("D = %v, want %v", out.D.Std(), tt.want)
			}
		})
	}

	if err := json.Unmarshal([]byte(`{"d":"soon"}`), &out); err == nil {
		t.Error("json.Unmarshal accepted a garbage duration")
	}

	out.D = Duration(90 * time.Second)
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if string(b) != `{"d":"1m30s"}` {
		t.Errorf("json.Marshal = %s, want %s", b, `{"d":"1m30s"}`)
	}
}

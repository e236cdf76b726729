package cms

import (
	"errors"
	"strings"
	"testing"

	"github.com/reedharmon/pubpulse/internal/engine"
)

func TestValidatePayload(t *testing.T) {
	body := []byte(`{"pagePath":"/p.html","selector":"#c","value":3.5,"context":"en"}`)

	p, err := validatePayload(engine.VerbUpdate, "n1", body)
	if err != nil {
		t.Fatalf("validatePayload: %v", err)
	}
	if p.PagePath != "/p.html" || p.Selector != "#c" {
		t.Errorf("payload = %+v", p)
	}
	if p.Value != "3.5" {
		t.Errorf("Value = %q, want canonical string %q", p.Value, "3.5")
	}
	if p.Context != "en" {
		t.Errorf("Context = %q, want %q", p.Context, "en")
	}
}

func TestValidatePayload_NoContext(t *testing.T) {
	body := []byte(`{"pagePath":"/p.html","selector":"#c","value":"v"}`)

	p, err := validatePayload(engine.VerbCreate, "n1", body)
	if err != nil {
		t.Fatalf("validatePayload: %v", err)
	}
	if p.Context != "" {
		t.Errorf("Context = %q, want empty", p.Context)
	}
}

func TestValidatePayload_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCause string
	}{
		{"not json", `<html>oops</html>`, "response is not JSON"},
		{"missing pagePath", `{"selector":"#c","value":"v"}`, "pagePath"},
		{"missing value", `{"pagePath":"/p.html","selector":"#c"}`, "value"},
		{"empty selector", `{"pagePath":"/p.html","selector":"","value":"v"}`, "selector"},
		{"wrong type", `{"pagePath":7,"selector":"#c","value":"v"}`, "pagePath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validatePayload(engine.VerbCreate, "n1", []byte(tt.body))

			var pe *engine.PayloadError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *engine.PayloadError", err)
			}
			if pe.Verb != engine.VerbCreate || pe.NodeID != "n1" {
				t.Errorf("payload error identity = %s/%s, want create/n1", pe.Verb, pe.NodeID)
			}
			if len(pe.Causes) == 0 {
				t.Fatal("payload error carries no causes")
			}
			joined := strings.Join(pe.Causes, "; ")
			if !strings.Contains(joined, tt.wantCause) {
				t.Errorf("causes = %q, want mention of %q", joined, tt.wantCause)
			}
		})
	}
}

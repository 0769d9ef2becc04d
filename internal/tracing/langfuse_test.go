package tracing

import (
	"testing"

	"github.com/54b3r/docrag/internal/config"
)

func TestSetup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.TracingConfig
		want bool
	}{
		{name: "unconfigured", cfg: config.TracingConfig{}, want: false},
		{name: "public key only", cfg: config.TracingConfig{PublicKey: "pk"}, want: false},
		{name: "secret key only", cfg: config.TracingConfig{SecretKey: "sk"}, want: false},
		{name: "both keys", cfg: config.TracingConfig{PublicKey: "pk", SecretKey: "sk", Host: "http://127.0.0.1:1"}, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			handler, flush, ok := Setup(tc.cfg)
			if ok != tc.want {
				t.Fatalf("Setup() ok = %v, want %v", ok, tc.want)
			}
			if !ok {
				if handler != nil || flush != nil {
					t.Error("disabled tracing should return nil handler and flush")
				}
				return
			}
			if handler == nil || flush == nil {
				t.Error("enabled tracing should return a handler and flush")
			}
		})
	}
}

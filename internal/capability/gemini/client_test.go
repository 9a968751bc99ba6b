package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/supportai/triage-pipeline/internal/capability"
	"google.golang.org/genai"
)

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "timeout net err" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return false }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "nil", in: nil, wantTransient: false},
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_500", in: genai.APIError{Code: 500}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_401", in: genai.APIError{Code: 401}, wantTransient: false},
		{name: "api_400", in: genai.APIError{Code: 400}, wantTransient: false},
		{name: "net_timeout", in: timeoutNetErr{}, wantTransient: true},
		{name: "stringified_api_429", in: errors.New(genai.APIError{Code: 429}.Error()), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var te *capability.TransientError
			isTransient := errors.As(got, &te)
			if isTransient != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%T %v)", isTransient, tt.wantTransient, got, got)
			}
		})
	}
}

func TestNewRequiresConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{Model: "m", EmbeddingModel: "e"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := New(ctx, Config{APIKey: "k", EmbeddingModel: "e"}); err == nil {
		t.Fatal("expected error for missing model")
	}
	if _, err := New(ctx, Config{APIKey: "k", Model: "m"}); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

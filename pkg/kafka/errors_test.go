package kafka

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"connection refused", errors.New("dial tcp 10.0.0.1:9092: connection refused"), ErrorTypeTransient},
		{"io timeout", errors.New("read tcp: i/o timeout"), ErrorTypeTransient},
		{"deadline exceeded", errors.New("context deadline exceeded"), ErrorTypeTransient},
		{"broken pipe", errors.New("write: broken pipe"), ErrorTypeTransient},
		{"case insensitive", errors.New("Connection Reset by peer"), ErrorTypeTransient},
		{"unknown topic", errors.New("unknown topic or partition"), ErrorTypePermanent},
		{"message too large", errors.New("message size exceeds limit"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError_ExplicitTypeWins(t *testing.T) {
	// An explicit classification must not be second-guessed by pattern
	// matching, even when the message text looks transient.
	err := NewPermanentError("schema rejected after timeout", errors.New("timeout"))
	if got := ClassifyError(err); got != ErrorTypePermanent {
		t.Errorf("ClassifyError = %v, want %v", got, ErrorTypePermanent)
	}

	wrapped := fmt.Errorf("publish: %w", NewTransientError("broker unavailable", nil))
	if got := ClassifyError(wrapped); got != ErrorTypeTransient {
		t.Errorf("ClassifyError(wrapped) = %v, want %v", got, ErrorTypeTransient)
	}
}

func TestKafkaError_Unwrap(t *testing.T) {
	base := errors.New("underlying")
	err := NewTransientError("publish failed", base)

	if !errors.Is(err, base) {
		t.Error("expected errors.Is to reach the underlying error")
	}
	if !err.IsTransient() {
		t.Error("expected IsTransient to be true")
	}
	if err.Error() != "publish failed: underlying" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

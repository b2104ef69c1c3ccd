package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetExpectedKind(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"not found", NotFound("x"), KindNotFound},
		{"invalid state", InvalidState("x"), KindInvalidState},
		{"simulator error", SimulatorError("x"), KindSimulatorError},
		{"not enough data", NotEnoughData("x"), KindNotEnoughData},
		{"internal", Internal("x"), KindInternal},
		{"store error", StoreError("x"), KindStoreError},
		{"serialization error", SerializationError("x"), KindSerializationError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
		})
	}
}

func TestErrorFormatsMessageWithArgs(t *testing.T) {
	err := NotFound("session %s not found", "abc-123")
	assert.Equal(t, "not_found: session abc-123 not found", err.Error())
}

func TestAsExtractsStructuredError(t *testing.T) {
	err := InvalidState("bad state")
	ae, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindInvalidState, ae.Kind)
}

func TestAsRejectsPlainErrors(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindOfDefaultsToInternalForUnstructuredErrors(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindOfReturnsStructuredKind(t *testing.T) {
	assert.Equal(t, KindNotEnoughData, KindOf(NotEnoughData("too little history")))
}

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionchainsim/service/internal/config"
)

func TestConnectWithNoURIReturnsNilWithoutError(t *testing.T) {
	a, err := Connect(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestNilArchiveMethodsAreNoOps(t *testing.T) {
	var a *Archive

	assert.NoError(t, a.Close(context.Background()))
	assert.NoError(t, a.RecordStep(StepRecord{
		SessionID:       uuid.New(),
		Step:            1,
		UnderlyingPrice: decimal.NewFromInt(100),
		RecordedAt:      time.Now(),
	}))
	assert.NoError(t, a.RecordEvent(EventRecord{
		SessionID:  uuid.New(),
		Event:      "create",
		State:      "Initialized",
		RecordedAt: time.Now(),
	}))
}

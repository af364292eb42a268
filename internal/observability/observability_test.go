package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondmain/internal/models"
)

func TestAuthFailureReason(t *testing.T) {
	tests := []struct {
		err    error
		reason string
	}{
		{models.ErrMissingCredential, "missing"},
		{models.ErrExpiredToken, "expired"},
		{models.ErrInvalidToken, "invalid"},
		{models.ErrUnknownPrincipal, "unknown_user"},
		{models.ErrAccountDisabled, "disabled"},
		{models.ErrBadCredentials, "bad_credentials"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.reason, AuthFailureReason(tt.err))
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, models.CodeValidation, ErrorCode(models.NewValidationError("bad")))
	assert.Equal(t, models.CodeInternal, ErrorCode(errors.New("boom")))
}

func TestTrackQuery(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := TrackQuery("select", "observability_test")
	done()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, Tracer)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "service", "Test")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("recorded"))
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", newSampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", newSampler(2.5).Description())
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewExporter_DefaultsToStdout(t *testing.T) {
	exporter, err := newExporter(context.Background(), TracingConfig{Exporter: "stdout"})
	require.NoError(t, err)
	assert.NoError(t, exporter.Shutdown(context.Background()))
}

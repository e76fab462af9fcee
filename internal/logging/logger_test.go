package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Verbosity
		wantErr bool
	}{
		{input: "0", want: VerbosityCritical},
		{input: "1", want: VerbosityInfoQuiet},
		{input: "2", want: VerbosityInfo},
		{input: "3", want: VerbosityDebug},
		{input: "critical", want: VerbosityCritical},
		{input: "INFO_QUIET", want: VerbosityInfoQuiet},
		{input: "Info", want: VerbosityInfo},
		{input: " debug ", want: VerbosityDebug},
		{input: "4", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVerbosity(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidVerbosity)
				assert.Equal(t, DefaultVerbosity, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerbosity_ZerologLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.ErrorLevel, VerbosityCritical.ZerologLevel())
	assert.Equal(t, zerolog.WarnLevel, VerbosityInfoQuiet.ZerologLevel())
	assert.Equal(t, zerolog.InfoLevel, VerbosityInfo.ZerologLevel())
	assert.Equal(t, zerolog.DebugLevel, VerbosityDebug.ZerologLevel())
}

func TestVerbosity_PflagValue(t *testing.T) {
	t.Parallel()

	v := DefaultVerbosity
	require.NoError(t, v.Set("debug"))
	assert.Equal(t, VerbosityDebug, v)
	assert.Equal(t, "debug", v.String())
	assert.Equal(t, "level", v.Type())

	require.Error(t, v.Set("loud"))
	assert.Equal(t, VerbosityDebug, v, "failed Set must not change the value")
}

func TestNew_FiltersByVerbosity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Verbosity: VerbosityInfoQuiet, Out: &buf, RunID: "run-1"})

	l.Info().Msg("progress message")
	l.Warn().Msg("important message")

	out := buf.String()
	assert.NotContains(t, out, "progress message")
	assert.Contains(t, out, "important message")
	assert.Contains(t, out, "run-1")
}

func TestNew_NoColorForNonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Verbosity: VerbosityDebug, Out: &buf})
	l.Debug().Msg("plain")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := ComponentLogger(New(Config{Verbosity: VerbosityInfo, Out: &buf}), "cache")
	ctx := l.WithContext(context.Background())

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "cache")
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()

	// Must not panic without a logger.
	FromContext(context.Background()).Info().Msg("dropped")
}

func TestNewRunID_Unique(t *testing.T) {
	t.Parallel()

	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Verbosity: VerbosityDebug, Out: &buf, RunID: "run-1"})
	ctx := WithComponent(l.WithContext(context.Background()), "manifest")

	FromContext(ctx).Debug().Msg("scanning")
	out := buf.String()
	assert.Contains(t, out, "component=manifest")
	assert.Contains(t, out, "run_id=run-1")

	// No logger in the context stays a no-op.
	FromContext(WithComponent(context.Background(), "cache")).Info().Msg("dropped")
}

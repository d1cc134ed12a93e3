package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		raw      string
		from, to string
	}{
		{"", "2026-10-18", "2026-10-18"},
		{"hoy", "2026-10-18", "2026-10-18"},
		{"AYER", "2026-10-17", "2026-10-17"},
		{"semana", "2026-10-12", "2026-10-18"},
		{"mes", "2026-10-01", "2026-10-18"},
		{"mes-pasado", "2026-09-01", "2026-09-30"},
		{"2026-03-05", "2026-03-05", "2026-03-05"},
		{"2026-03-01..2026-03-31", "2026-03-01", "2026-03-31"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := resolvePeriod(tt.raw, now)
			require.NoError(t, err)
			assert.Equal(t, tt.from, r.From.Format(dateLayout))
			assert.Equal(t, tt.to, r.To.Format(dateLayout))
		})
	}
}

func TestResolvePeriodInvalid(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"mañana", "2026-13-01", "2026-10-20..2026-10-01"} {
		_, err := resolvePeriod(raw, now)
		assert.Error(t, err, raw)
	}
}

func TestLooksLikePeriod(t *testing.T) {
	assert.True(t, looksLikePeriod("hoy"))
	assert.True(t, looksLikePeriod("Semana"))
	assert.True(t, looksLikePeriod("2026-10-01..2026-10-18"))
	assert.False(t, looksLikePeriod("confirmada"))
	assert.False(t, looksLikePeriod("todos"))
}

func TestFormatRange(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	r, err := resolvePeriod("hoy", day)
	require.NoError(t, err)
	assert.Equal(t, "18/10/2026", formatRange(r))

	r, err = resolvePeriod("semana", day)
	require.NoError(t, err)
	assert.Equal(t, "12/10/2026 al 18/10/2026", formatRange(r))
}

package vulnscan

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim/debugsimtest"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"https", "https://example.com", true},
		{"http with path", "http://example.com/app?q=1", true},
		{"empty", "", false},
		{"no scheme", "example.com", false},
		{"ftp", "ftp://example.com", false},
		{"no host", "http://", false},
		{"unparseable", "http://[::1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.raw)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidURL)
			}
		})
	}
}

func TestSimulateFollowsDraws(t *testing.T) {
	rng := &debugsimtest.Rand{
		// count, then weakness/severity/path per finding, then duration.
		Ints:   []int{2, 1, 3, 2, 4, 0, 0, 5},
		Floats: []float64{0.1, 0.9},
	}
	s := New(Options{Random: rng, Now: debugsimtest.NewClock().Now})

	res := s.Simulate("https://example.com")
	require.Len(t, res.Vulnerabilities, 2)
	assert.Equal(t, "https://example.com", res.URL)
	assert.Equal(t, debugsimtest.Epoch, res.ScanDate)
	assert.Equal(t, 7, res.DurationSeconds)

	first := res.Vulnerabilities[0]
	assert.Equal(t, "SQL Injection", first.Name)
	assert.Equal(t, "CWE-89", first.CWE)
	assert.Equal(t, SeverityCritical, first.Severity)
	assert.Equal(t, "https://example.com/admin", first.AffectedURL)
	assert.Contains(t, first.ExploitSuggestion, "advanced")
	assert.True(t, first.IsLegal)
	assert.Empty(t, first.LegalNotes)
	assert.Len(t, first.StepsToReproduce, 3)

	second := res.Vulnerabilities[1]
	assert.Equal(t, "Missing Authentication", second.Name)
	assert.Equal(t, SeverityLow, second.Severity)
	assert.Equal(t, "https://example.com", second.AffectedURL)
	assert.Contains(t, second.ExploitSuggestion, "basic")
	assert.False(t, second.IsLegal)
	assert.NotEmpty(t, second.LegalNotes)

	ms := debugsimtest.Epoch.UnixMilli()
	assert.Equal(t, "VULN-"+strconv.FormatInt(ms, 10)+"-0", first.ID)
	assert.Equal(t, "VULN-"+strconv.FormatInt(ms, 10)+"-1", second.ID)
	assert.Equal(t, []string{SeverityCritical, SeverityLow}, res.Severities())
}

func TestSimulateBounds(t *testing.T) {
	s := New(Options{Random: debugsim.NewRandom(42)})

	for i := 0; i < 200; i++ {
		res := s.Simulate("http://target.test")
		assert.LessOrEqual(t, len(res.Vulnerabilities), 5)
		assert.GreaterOrEqual(t, res.DurationSeconds, 2)
		assert.LessOrEqual(t, res.DurationSeconds, 11)
		for _, v := range res.Vulnerabilities {
			assert.True(t, strings.HasPrefix(v.AffectedURL, "http://target.test"))
			assert.Equal(t, !v.IsLegal, v.LegalNotes != "", "legal notes present exactly when not legal")
			assert.Contains(t, severities, v.Severity)
		}
	}
}

func TestScanRejectsInvalidURL(t *testing.T) {
	s := New(Options{Delay: time.Hour})

	start := time.Now()
	_, err := s.Scan(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Less(t, time.Since(start), time.Second, "validation must not wait for the delay")
}

func TestScanHonoursContext(t *testing.T) {
	s := New(Options{Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Scan(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanWaitsForDelay(t *testing.T) {
	s := New(Options{Delay: 20 * time.Millisecond, Random: debugsim.NewRandom(1)})

	start := time.Now()
	res, err := s.Scan(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, "https://example.com", res.URL)
}

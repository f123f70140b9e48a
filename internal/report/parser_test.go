package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/domain/entity"
)

func TestParser_ExtractTime(t *testing.T) {
	p := NewParser(zap.NewNop())

	tests := []struct {
		name string
		text string
		want entity.Optional[int]
	}{
		{"labeled with seconds", "The collision occurred at 00:02:32 on the highway.", entity.Some(152)},
		{"labeled with ocr digit", "Time: l0:30 PM, wet road", entity.Some(81000)},
		{"dotted clock", "Impact at 10.30 AM near the bridge", entity.Some(37800)},
		{"bare clock", "The crash happened around 14:05.", entity.Some(50700)},
		{"midnight hour", "Heard a bang, 12:15 AM maybe", entity.Some(900)},
		{"noon stays noon", "time: 12:00 PM", entity.Some(43200)},
		{"meridian is a whole word", "at 10:30 amid heavy traffic", entity.Some(37800)},
		{"no time", "Nobody remembers when it happened.", entity.None[int]()},
		{"out of range", "Time: 99:99", entity.None[int]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExtractTime(tt.text))
		})
	}
}

func TestParser_ExtractSeverity(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		text string
		want entity.Severity
	}{
		{"The front of the car was destroyed", entity.SeveritySevere},
		{"just a minor scratch on the door", entity.SeverityMinor},
		{"minor dent on the bumper", entity.SeverityModerate},
		{"SEVRE damage to both vehicles", entity.SeveritySevere},
		{"rninor scuff", entity.SeverityMinor},
		{"the driver was fata1ly hurt", entity.SeverityUnknown},
		{"Nothing notable to add.", entity.SeverityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExtractSeverity(tt.text))
		})
	}
}

func TestParser_Process(t *testing.T) {
	p := NewParser(zap.NewNop())

	t.Run("full report", func(t *testing.T) {
		obs, err := p.Process("Incident report\nTime: 10:30 PM\nDamage: severe, front crushed")
		require.NoError(t, err)

		assert.Equal(t, entity.Some(81000), obs.ReportedTimeSeconds)
		assert.Equal(t, entity.SeveritySevere, obs.ReportedSeverity)
		assert.Equal(t, "Incident report Time: 10:30 PM Damage: severe, front crushed", obs.RawTextSnippet)
	})

	t.Run("long report is truncated", func(t *testing.T) {
		obs, err := p.Process(strings.Repeat("a", 150))
		require.NoError(t, err)

		assert.Len(t, obs.RawTextSnippet, snippetLength+len("..."))
		assert.True(t, strings.HasSuffix(obs.RawTextSnippet, "..."))
		assert.False(t, obs.ReportedTimeSeconds.IsPresent())
		assert.Equal(t, entity.SeverityUnknown, obs.ReportedSeverity)
	})

	t.Run("blank text", func(t *testing.T) {
		_, err := p.Process(" \n\t")
		assert.ErrorIs(t, err, ErrNoText)
	})
}

func TestParseClock(t *testing.T) {
	secs, ok := parseClock("O7:4S", "pm")
	require.True(t, ok)
	assert.Equal(t, 19*3600+45*60, secs)

	_, ok = parseClock("7", "")
	assert.False(t, ok)

	_, ok = parseClock("10:61", "")
	assert.False(t, ok)
}

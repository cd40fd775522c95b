package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
)

func TestNewTimeOnCampusResponseMillisecondValues(t *testing.T) {
	summary := &models.TimeOnCampusSummary{
		StudentID:       "stu-1",
		WindowDays:      7,
		CountedDays:     2,
		TotalDuration:   13 * time.Hour,
		AverageDuration: 6*time.Hour + 30*time.Minute,
	}

	resp := NewTimeOnCampusResponse(summary)
	assert.EqualValues(t, 13*60*60*1000, resp.TotalMs)
	assert.EqualValues(t, (6*60+30)*60*1000, resp.AverageMs)
	assert.Equal(t, models.DurationParts{Hours: 6, Minutes: 30}, resp.Average)
}

func TestTimeOnCampusSummaryWireNamesCarryNoUnitSuffix(t *testing.T) {
	// The raw summary fields marshal as duration nanoseconds; only the
	// response DTO exposes millisecond values, so no summary key may claim
	// a millisecond unit.
	payload, err := json.Marshal(&models.TimeOnCampusSummary{TotalDuration: time.Hour})
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &keys))
	for key := range keys {
		assert.NotContains(t, key, "_ms")
	}
	assert.Contains(t, keys, "total_duration")
}

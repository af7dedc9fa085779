package tuvi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourToBranchIndex(t *testing.T) {
	cases := map[int]int{
		23: 0, 0: 0, // Ty spans 23:00-00:59
		1: 1, 2: 1, // Suu
		3: 2, 4: 2, // Dan
		11: 6, 12: 6, // Ngo
		21: 11, 22: 11, // Hoi
	}
	for hour, want := range cases {
		assert.Equal(t, want, hourToBranchIndex(hour), "hour %d", hour)
	}
}

func TestMenhIndex(t *testing.T) {
	// Month 1, hour Ty: Menh sits at Dan.
	assert.Equal(t, 2, menhIndex(1, 0))
	// Going back by the hour branch wraps below zero.
	assert.Equal(t, 11, menhIndex(1, 3))
	// Leap months count as their base month.
	assert.Equal(t, menhIndex(7, 4), menhIndex(-7, 4))
}

func TestTuViPosition(t *testing.T) {
	// Day divisible by cuc: quotient-1 steps from Dan.
	assert.Equal(t, (2+3)%12, tuViPosition(3, 12))
	// Otherwise quotient plus the shortfall.
	assert.Equal(t, (2+4+(3-1))%12, tuViPosition(3, 13))
}

func TestCucValuesStayInRange(t *testing.T) {
	for _, can := range thienCan {
		for idx := 0; idx < 12; idx++ {
			cuc := cucOf(can, idx)
			assert.GreaterOrEqual(t, cuc, 2)
			assert.LessOrEqual(t, cuc, 6)
		}
	}
}

func TestGenerateChartIsDeterministic(t *testing.T) {
	birth := time.Date(1995, 8, 17, 0, 0, 0, 0, time.UTC)
	a, solarA := GenerateChart(birth, 14, "nam", nil, false)
	b, solarB := GenerateChart(birth, 14, "nam", nil, false)
	assert.Equal(t, a, b)
	assert.Equal(t, solarA, solarB)
}

func TestGenerateChartWheel(t *testing.T) {
	birth := time.Date(1995, 8, 17, 0, 0, 0, 0, time.UTC)
	chart, _ := GenerateChart(birth, 14, "nam", nil, false)
	require.Len(t, chart.Houses, 12)

	// All twelve house names appear exactly once.
	seen := map[string]int{}
	for _, h := range chart.Houses {
		seen[h.CungName]++
		assert.NotEmpty(t, h.Branch)
		assert.NotEmpty(t, h.Analysis)
	}
	require.Len(t, seen, 12)
	for name, n := range seen {
		assert.Equal(t, 1, n, "house %s", name)
	}

	// All fourteen major stars land somewhere.
	stars := 0
	for _, h := range chart.Houses {
		stars += len(h.MajorStars)
	}
	assert.Equal(t, 14, stars)

	assert.NotEmpty(t, chart.Input.Can)
	assert.NotEmpty(t, chart.Input.Chi)
	assert.Contains(t, []string{"Kim", "Mộc", "Thủy", "Hỏa", "Thổ"}, chart.Input.Menh)
}

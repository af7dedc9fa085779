package polls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestTransition(t *testing.T) {
	assert.Equal(t, ActionVote, Transition(nil, 10))
	assert.Equal(t, ActionUnvote, Transition(ptr(10), 10))
	assert.Equal(t, ActionChange, Transition(ptr(10), 11))
}

func TestPercentageRounding(t *testing.T) {
	// 1/3 = 33.33 -> 33, 2/3 = 66.67 -> 67
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	// exact half rounds up
	assert.Equal(t, 13, Percentage(1, 8))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 100, Percentage(5, 5))
	assert.Equal(t, 0, Percentage(0, 5))
}

func TestPercentageZeroTotal(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(3, 0))
}

func TestPercentagesNeedNotSumTo100(t *testing.T) {
	// three options with 1 vote each: 33+33+33 = 99
	sum := 0
	for i := 0; i < 3; i++ {
		sum += Percentage(1, 3)
	}
	assert.Equal(t, 99, sum)

	// 1,1,2 of 4: 25+25+50 = 100
	sum = Percentage(1, 4) + Percentage(1, 4) + Percentage(2, 4)
	assert.Equal(t, 100, sum)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleKey(t *testing.T) {
	a := Sample{Time: 1, Value: 2, Index: 5}
	b := Sample{Time: 1, Value: 2, Index: 9}
	assert.Equal(t, a.Key(), b.Key(), "timestamped samples ignore the row index")

	sa := Sample{Time: 1, Value: 2, Index: 5, Synthetic: true}
	sb := Sample{Time: 1, Value: 2, Index: 9, Synthetic: true}
	assert.NotEqual(t, sa.Key(), sb.Key())
}

func TestViewTabString(t *testing.T) {
	assert.Equal(t, "live", TabLive.String())
	assert.Equal(t, "history", TabHistory.String())
}

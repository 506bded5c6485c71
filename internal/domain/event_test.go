package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingInteger(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"₹50 per head", 50},
		{"₹200 per squad", 200},
		{"Rs. 100/- per team of 2", 100},
		{"150", 150},
		{"free entry", 0},
		{"", 0},
		{"₹ 75", 75},
		{"99999999999999999999999 per head", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLeadingInteger(tt.in))
		})
	}
}

func TestEvent_AllowsTeamSize(t *testing.T) {
	e := Event{MinMembers: 2, MaxMembers: 4}

	assert.False(t, e.AllowsTeamSize(1))
	assert.True(t, e.AllowsTeamSize(2))
	assert.True(t, e.AllowsTeamSize(4))
	assert.False(t, e.AllowsTeamSize(5))
}

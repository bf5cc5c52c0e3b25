package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockFrom(t *testing.T) {
	clock, err := clockFrom("", "")
	require.NoError(t, err)
	assert.Nil(t, clock)

	clock, err = clockFrom("2025-01-02T03:04:05Z", "1700000000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), clock())

	clock, err = clockFrom("", "1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), clock().Unix())

	_, err = clockFrom("yesterday", "")
	assert.Error(t, err)

	_, err = clockFrom("", "soon")
	assert.Error(t, err)
}

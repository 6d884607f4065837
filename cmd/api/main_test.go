package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestTimeoutCoversInference(t *testing.T) {
	assert.Equal(t, 60*time.Second, requestTimeout(0))
	assert.Equal(t, 60*time.Second, requestTimeout(30*time.Second))
	assert.Equal(t, 150*time.Second, requestTimeout(2*time.Minute))
	assert.Greater(t, requestTimeout(5*time.Minute), 5*time.Minute)
}

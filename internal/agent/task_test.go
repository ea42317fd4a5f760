package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTask(t *testing.T) {
	task := BuildTask("https://example.com/chat/42")

	assert.Contains(t, task, "https://example.com/chat/42")
	assert.Contains(t, task, "DO NOT navigate to any other URLs")
	assert.Contains(t, task, "markdown code fences")
	assert.Contains(t, task, "user-assistant conversation")
}

package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaglintErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *TaglintError
		expected string
	}{
		{
			name:     "code and message",
			err:      NewValidationError(ErrCodeInvalidArgument, "bad flag"),
			expected: "[ERR_INVALID_ARGUMENT] bad flag",
		},
		{
			name:     "with file and line",
			err:      ErrPolicyLine("forbidden.csv", 3, "each line must have exactly two elements"),
			expected: "[ERR_POLICY_MALFORMED] forbidden.csv:3 each line must have exactly two elements",
		},
		{
			name:     "with column",
			err:      NewConfigError(ErrCodeConfigInvalid, "oops").WithLocation("a.yml", 2, 7),
			expected: "[ERR_CONFIG_INVALID] a.yml:2:7 oops",
		},
		{
			name:     "with cause",
			err:      ErrUnreadable("x.jsp", errors.New("permission denied")),
			expected: "[ERR_FILE_UNREADABLE] x.jsp file could not be read: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTaglintErrorMatching(t *testing.T) {
	cause := errors.New("root cause")
	err := NewIOError(ErrCodeFileUnreadable, "read failed", cause)
	wrapped := fmt.Errorf("scanning: %w", err)

	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, &TaglintError{Type: ErrorTypeIO, Code: ErrCodeFileUnreadable})
	assert.NotErrorIs(t, wrapped, &TaglintError{Type: ErrorTypeConfig, Code: ErrCodeFileUnreadable})

	assert.True(t, IsIOError(wrapped))
	assert.False(t, IsConfigError(wrapped))
	assert.True(t, IsConfigError(ErrPolicyLine("p", 1, "bad")))
	assert.False(t, IsIOError(errors.New("plain")))
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	require.NoError(t, collector.Err())
	assert.False(t, collector.HasErrors())

	collector.Add(nil)
	assert.Equal(t, 0, collector.Len())

	first := ErrFileNotFound("missing.jsp")
	collector.Add(first)
	assert.Equal(t, first, collector.Err())

	collector.Add(errors.New("second"))
	assert.Equal(t, 2, collector.Len())
	err := collector.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 files failed")
	assert.ErrorIs(t, err, first)

	collector.Clear()
	assert.False(t, collector.HasErrors())
}

func TestErrorCollectorConcurrentAdds(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.Add(fmt.Errorf("error %d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, collector.Errors(), 20)
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with underlying error",
			err:  &Error{Kind: KindStorage, Op: "query", Message: "failed", Err: fmt.Errorf("locked")},
			want: "storage.query: failed: locked",
		},
		{
			name: "without op",
			err:  &Error{Kind: KindParser, Message: "grammar missing"},
			want: "parser: grammar missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New(KindStorage, "execute", "write failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsFatal(t *testing.T) {
	fatal := New(KindConfig, "load", "missing api key", nil).WithFatal()
	recoverable := New(KindFilesystem, "read", "file vanished", nil)

	assert.True(t, IsFatal(fatal))
	assert.False(t, IsFatal(recoverable))
	assert.False(t, IsFatal(fmt.Errorf("plain error")))
}

func TestIsRetryable(t *testing.T) {
	retryable := New(KindEmbedding, "embed", "rate limited", nil).WithRetryable()
	terminal := New(KindResolution, "resolve", "unknown callee", nil)

	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(terminal))
}

func TestError_ToJSON(t *testing.T) {
	err := New(KindLLM, "chat", "timeout", fmt.Errorf("context deadline exceeded")).WithRetryable()
	j := err.ToJSON()

	assert.Equal(t, "llm", j.Kind)
	assert.Equal(t, "chat", j.Op)
	assert.True(t, j.Retryable)
	assert.Equal(t, "context deadline exceeded", j.Cause)
}

func TestError_Summary(t *testing.T) {
	err := New(KindStorage, "connect", "connection refused", fmt.Errorf("dial tcp: refused"))
	summary := err.Summary()
	assert.Contains(t, summary, "storage failure in connect")
	assert.Contains(t, summary, "connection refused")
}

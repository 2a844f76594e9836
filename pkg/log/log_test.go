package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.InfoLevel, parseLevel(""))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestRequestContext(t *testing.T) {
	assert.Equal(t, "-", GetContext().RequestId)

	SetContext("req-1")
	assert.Equal(t, "req-1", GetContext().RequestId)

	done := make(chan string)
	go func() {
		done <- GetContext().RequestId
	}()
	assert.Equal(t, "-", <-done)

	DelContext()
	assert.Equal(t, "-", GetContext().RequestId)
}

func TestNonceContext(t *testing.T) {
	defer DelContext()

	SetNonce("42")
	assert.Equal(t, "-/42", GetContext().String())

	SetContext("req-2")
	assert.Equal(t, "req-2/42", GetContext().String())

	SetNonce("")
	assert.Equal(t, "req-2", GetContext().String())
}

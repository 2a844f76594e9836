package log

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/zap/zapcore"
)

// Context holds the log fields of the current goroutine.
type Context struct {
	RequestId string
	Nonce     string
}

var contexts sync.Map

func (c Context) String() string {
	if c.Nonce == "" {
		return c.RequestId
	}
	return c.RequestId + "/" + c.Nonce
}

// SetContext binds a request id to the calling goroutine.
func SetContext(requestId string) {
	update(func(c *Context) { c.RequestId = requestId })
}

// SetNonce tags the calling goroutine's log lines with a permit nonce.
// An empty nonce clears the tag.
func SetNonce(nonce string) {
	update(func(c *Context) { c.Nonce = nonce })
}

func GetContext() Context {
	if v, ok := contexts.Load(goid()); ok {
		if ctx, ok := v.(Context); ok {
			return ctx
		}
	}
	return Context{RequestId: "-"}
}

func DelContext() {
	contexts.Delete(goid())
}

func update(fn func(c *Context)) {
	ctx := GetContext()
	fn(&ctx)
	if ctx.RequestId == "" {
		ctx.RequestId = "-"
	}
	if ctx == (Context{RequestId: "-"}) {
		contexts.Delete(goid())
		return
	}
	contexts.Store(goid(), ctx)
}

func CallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(GetContext().String())
	enc.AppendString(caller.TrimmedPath())
}

// goid parses the id out of the "goroutine N [running]:" stack header.
func goid() int64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

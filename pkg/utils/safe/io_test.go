package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/utils/safe"
)

type closer struct {
	called bool
	err    error
}

func (c *closer) Close() error {
	c.called = true
	return c.err
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestClose(t *testing.T) {
	ctx := context.Background()

	ok := &closer{}
	safe.Close(ctx, ok)
	gt.Bool(t, ok.called).True()

	failing := &closer{err: errors.New("boom")}
	safe.Close(ctx, failing)
	gt.Bool(t, failing.called).True()

	safe.Close(ctx, nil)
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	safe.Write(ctx, &buf, []byte("ok"))
	gt.Value(t, buf.String()).Equal("ok")

	safe.Write(ctx, failWriter{}, []byte("ok"))
	safe.Write(ctx, nil, []byte("ok"))
}

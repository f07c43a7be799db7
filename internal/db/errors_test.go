package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_WrapsOperation(t *testing.T) {
	err := &Error{Op: OpHGetAll, Err: context.DeadlineExceeded}
	if err.Error() != "HGETALL: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected Unwrap to expose the cause")
	}
}

package sl

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.KindString, attr.Value.Kind())
	assert.Equal(t, "boom", attr.Value.String())
}

func TestStatus(t *testing.T) {
	attr := Status(503)

	assert.Equal(t, "status", attr.Key)
	assert.Equal(t, int64(503), attr.Value.Int64())
}

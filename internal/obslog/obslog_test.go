package obslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debugf("should not appear")
	l.Infof("should not appear either")
	l.Warningf("visible warning %d", 1)
	l.Errorf("visible error")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "visible warning 1")
	assert.Contains(t, out, "visible error")
}

func TestDiscardSuppressesEverything(t *testing.T) {
	l := Discard()
	// Discard writes to io.Discard; this just exercises the call paths.
	l.Errorf("x")
	l.Warningf("x")
	l.Infof("x")
	l.Debugf("x")
}

func TestDefaultImplementsLogger(t *testing.T) {
	var l Logger = Default()
	assert.NotNil(t, l)
}

func TestTagsArePresent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	l.Errorf("boom")
	assert.True(t, strings.Contains(buf.String(), "[ERROR]"))
}

package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalresp/internal/logging"
)

func TestNew_JSONComponent(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logging.Component(l, "session").WithField("seed", 42).Debug("started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session", line["component"])
	assert.Equal(t, "started", line["msg"])
	assert.EqualValues(t, 42, line["seed"])
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
	_, err = logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestDiscard_Silent(t *testing.T) {
	e := logging.Discard()
	e.Error("nothing to see")
	assert.False(t, e.Logger.IsLevelEnabled(logrus.ErrorLevel))
}

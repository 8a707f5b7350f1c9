package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	now := time.Date(2026, time.August, 21, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "coinclaw.2026-08.log", FileName(now))
}

func TestNewWritesToConsoleAndFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	var console bytes.Buffer

	logger, closeLog, err := New(Options{Dir: "log", Out: &console, Fs: fs})
	require.NoError(t, err)

	logger.Info("claim finished")
	require.NoError(t, closeLog())

	assert.Contains(t, console.String(), "claim finished")

	data, err := afero.ReadFile(fs, "log/"+FileName(time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "claim finished")
}

func TestNewDisableFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	var console bytes.Buffer

	logger, closeLog, err := New(Options{Dir: "log", DisableFile: true, Out: &console, Fs: fs})
	require.NoError(t, err)
	require.NoError(t, closeLog())

	logger.Info("console only")

	exists, err := afero.DirExists(fs, "log")
	require.NoError(t, err)
	assert.False(t, exists, "no log dir should be created when file logging is off")
}

func TestNewLevels(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want logrus.Level
	}{
		{"default is info", Options{}, logrus.InfoLevel},
		{"debug flag", Options{Debug: true}, logrus.DebugLevel},
		{"trace flag", Options{Trace: true}, logrus.TraceLevel},
		{"trace beats debug", Options{Debug: true, Trace: true}, logrus.TraceLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var console bytes.Buffer
			tc.opts.DisableFile = true
			tc.opts.Out = &console

			logger, _, err := New(tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, logger.GetLevel())
		})
	}
}

func TestNewAppendsAcrossRuns(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, line := range []string{"first run", "second run"} {
		logger, closeLog, err := New(Options{Dir: "log", Out: &bytes.Buffer{}, Fs: fs})
		require.NoError(t, err)
		logger.Info(line)
		require.NoError(t, closeLog())
	}

	data, err := afero.ReadFile(fs, "log/"+FileName(time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}

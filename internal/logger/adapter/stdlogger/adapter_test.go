package stdlogger_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"

	"github.com/authenticator/authenticator/internal/logger"
	"github.com/authenticator/authenticator/internal/logger/adapter/stdlogger"
)

func TestAdapter(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       logger.Log
		contains  []string
		notExpect []string
	}{
		{
			name: "no logger enabled",
			cfg: logger.Log{
				ServiceName: "test",
				AppName:     "test",
			},
		},
		{
			name: "console enabled log level info hides debug",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
			contains:  []string{"test info", "test warning", "test error", "std bridge", `"component":"ldap"`},
			notExpect: []string{"test debug"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := capture(t, tc.cfg)

			if len(tc.contains) == 0 {
				assert.Empty(t, out)
			}

			for _, c := range tc.contains {
				assert.Contains(t, out, c)
			}

			for _, c := range tc.notExpect {
				assert.NotContains(t, out, c)
			}
		})
	}
}

func capture(t *testing.T, cfg logger.Log) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	require.NoError(t, logger.Init(cfg))

	testLogger := stdlogger.New("ldap")

	testLogger.Debugf("stdlogger %s", "test debug")
	testLogger.Infof("stdlogger %s", "test info")
	testLogger.Warningf("stdlogger %s", "test warning")
	testLogger.Errorf("stdlogger %s", "test error")
	testLogger.Std(zerolog.WarnLevel).Println("std bridge")

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr

	return <-outC
}

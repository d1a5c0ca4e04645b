package logging

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/ferroxide/ferroxide/internal/testutil"
)

func lastLine(t *testing.T, fs afero.Fs) string {
	t.Helper()
	lines := testutil.ReadLines(t, fs, testLogPath)
	if len(lines) == 0 {
		t.Fatal("log file is empty")
	}
	return lines[len(lines)-1]
}

func TestLogger(t *testing.T) {
	t.Run("printf methods use their level", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		sink, _ := openTestSink(t, fs, defaultRetention())
		log := sink.Logger("api")

		tests := []struct {
			emit  func(string, ...any)
			level string
		}{
			{log.Errorf, "ERROR"},
			{log.Warnf, "WARN "},
			{log.Infof, "INFO "},
			{log.Debugf, "DEBUG"},
			{log.Tracef, "TRACE"},
		}
		for _, tt := range tests {
			tt.emit("status %d", 7)
			want := "[" + tt.level + " " + testStamp + "] api > status 7"
			if got := lastLine(t, fs); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		}
	})

	t.Run("escaped percent is formatted", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		sink, _ := openTestSink(t, fs, defaultRetention())

		sink.Logger("api").Infof("%d%% done", 100)
		if got := lastLine(t, fs); !strings.HasSuffix(got, "api > 100% done") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty target uses default", func(t *testing.T) {
		sink, _ := openTestSink(t, afero.NewMemMapFs(), defaultRetention())
		if got := sink.Logger("").Target(); got != DefaultTarget {
			t.Errorf("Target() = %q, want %q", got, DefaultTarget)
		}
	})

	t.Run("named builds dotted target", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		sink, _ := openTestSink(t, fs, defaultRetention())

		child := sink.Logger("http").Named("cors")
		if child.Target() != "http.cors" {
			t.Fatalf("Target() = %q", child.Target())
		}
		if same := child.Named(""); same != child {
			t.Error("Named(\"\") should return the receiver")
		}

		child.Warnf("rejected")
		if got := lastLine(t, fs); !strings.HasSuffix(got, "http.cors > rejected") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("enabled follows the filter", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		sink, err := Open(Options{Path: testLogPath, FS: fs, Console: &testutil.SyncBuffer{}, Filter: "warn,http=debug", Color: ColorNever})
		if err != nil {
			t.Fatal(err)
		}

		if !sink.Logger("http").Enabled(LevelDebug) {
			t.Error("http should allow debug")
		}
		if sink.Logger("db").Enabled(LevelInfo) {
			t.Error("db should reject info")
		}

		before := len(testutil.ReadLines(t, fs, testLogPath))
		sink.Logger("db").Infof("dropped")
		if after := len(testutil.ReadLines(t, fs, testLogPath)); after != before {
			t.Errorf("filtered record was written")
		}
	})
}

func TestNopLogger(t *testing.T) {
	for _, log := range []*Logger{NopLogger(), {}} {
		if log.Enabled(LevelError) {
			t.Error("nop logger must not be enabled")
		}
		log.Errorf("ignored %d", 1)
		log.Tracef("ignored")
		if log.Named("x") != log {
			t.Error("Named on a nop logger should return it unchanged")
		}
	}
}

package cli

import (
	"regexp"
	"strings"
	"testing"
)

type traitAssertion func(tb testing.TB, r result)

// assertLoggingLevel looks for the logrus level prefix, e.g. "[0000]  INFO" or "[0012] DEBUG".
func assertLoggingLevel(level string) traitAssertion {
	logPattern := regexp.MustCompile(`(?m)^\[\d{4}\]\s+` + strings.ToUpper(level))
	return func(tb testing.TB, r result) {
		tb.Helper()
		if !logPattern.MatchString(r.stderr) {
			tb.Errorf("output did not indicate the %q logging level", level)
		}
	}
}

func assertNotInOutput(data string) traitAssertion {
	return func(tb testing.TB, r result) {
		tb.Helper()
		for stream, out := range map[string]string{"stdout": r.stdout, "stderr": r.stderr} {
			if strings.Contains(out, data) {
				tb.Errorf("data=%q was found in %s, but should not have been there", data, stream)
			}
		}
	}
}

func assertInOutput(data string) traitAssertion {
	return func(tb testing.TB, r result) {
		tb.Helper()
		if !strings.Contains(r.stdout, data) && !strings.Contains(r.stderr, data) {
			tb.Errorf("data=%q was NOT found in any output, but should have been there", data)
		}
	}
}

func assertExitCode(code int) traitAssertion {
	return func(tb testing.TB, r result) {
		tb.Helper()
		if r.rc != code {
			tb.Errorf("expected rc=%d but got rc=%d", code, r.rc)
		}
	}
}

func assertFailingReturnCode(tb testing.TB, r result) {
	tb.Helper()
	if r.rc == 0 {
		tb.Errorf("expected a failure but got rc=%d", r.rc)
	}
}

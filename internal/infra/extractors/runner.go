// internal/infra/extractors/runner.go
package extractors

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner runs an external command. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec and kills them when ctx is done.
type ExecRunner struct {
	Logger *logrus.Entry
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := r.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := logrus.Fields{
		"cmd":         name,
		"args":        strings.Join(args, " "),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["stderr"] = truncate(errb.String(), 8<<10)
		log.WithFields(fields).WithError(err).Error("Command failed")
	} else {
		fields["stdout_bytes"] = out.Len()
		log.WithFields(fields).Debug("Command finished")
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

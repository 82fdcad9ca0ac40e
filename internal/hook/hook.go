package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/scanner"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 30 * time.Second

// payload is the JSON document written to the command's stdin.
type payload struct {
	Word          string `json:"word"`
	Path          string `json:"path"`
	URL           string `json:"url"`
	StatusCode    int    `json:"status"`
	ContentLength int64  `json:"size"`
}

// Runner executes a shell command for each reported result. It satisfies
// scanner.Sink and is called from many workers at once.
type Runner struct {
	cmd     string
	timeout time.Duration
	log     logging.Logger
}

// NewRunner creates a hook runner for the shell command cmd. The command
// may use the {url}, {path}, {word}, {status} and {size} placeholders.
func NewRunner(cmd string, log logging.Logger) *Runner {
	return &Runner{cmd: cmd, timeout: DefaultTimeout, log: log}
}

// Record runs the hook for result. Failures are logged and never stop the
// scan.
func (r *Runner) Record(result *scanner.Result) {
	data, err := json.Marshal(payload{
		Word:          result.Word,
		Path:          result.Path,
		URL:           result.URL,
		StatusCode:    result.StatusCode,
		ContentLength: result.ContentLength,
	})
	if err != nil {
		r.log.Errorf("hook: encoding result: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.Expand(result))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.WaitDelay = time.Second

	out, err := cmd.CombinedOutput()
	if err != nil {
		r.log.Warnf("hook for %s failed: %v", result.URL, err)
	}
	if out := strings.TrimSpace(string(out)); out != "" {
		r.log.Infof("[hook] %s", out)
	}
}

// Expand substitutes the result's fields into the command template.
func (r *Runner) Expand(result *scanner.Result) string {
	return strings.NewReplacer(
		"{url}", result.URL,
		"{path}", result.Path,
		"{word}", result.Word,
		"{status}", strconv.Itoa(result.StatusCode),
		"{size}", strconv.FormatInt(result.ContentLength, 10),
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}

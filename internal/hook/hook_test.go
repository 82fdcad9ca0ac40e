package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/maxvaer/dirprobe/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hit = &scanner.Result{Word: "admin", Path: "admin.php", URL: "http://t/admin.php", StatusCode: 200, ContentLength: 42}

func TestExpand(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := NewRunner("notify {status} {size} {word} {path} {url}", log)
	assert.Equal(t, "notify 200 42 admin admin.php http://t/admin.php", r.Expand(hit))
}

func TestRecordPipesJSON(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	log, hook := test.NewNullLogger()
	out := filepath.Join(t.TempDir(), "hit.json")
	r := NewRunner("cat > "+out+"; echo done {status}", log)

	r.Record(hit)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "admin.php", got.Path)
	assert.Equal(t, 200, got.StatusCode)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "[hook] done 200", hook.LastEntry().Message)
}

func TestRecordFailureIsLogged(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	log, hook := test.NewNullLogger()
	r := NewRunner("exit 3", log)
	r.Record(hit)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRecordTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	log, hook := test.NewNullLogger()
	r := NewRunner("sleep 5", log)
	r.timeout = 50 * time.Millisecond

	start := time.Now()
	r.Record(hit)
	assert.Less(t, time.Since(start), 3*time.Second)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

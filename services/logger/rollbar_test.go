package logsvc

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
)

type reportedItem struct {
	level  string
	person *rollbar.Person
	err    error
	msg    string
	extras map[string]interface{}
}

type recordingReporter struct {
	mu     sync.Mutex
	items  []reportedItem
	waited bool
}

func (r *recordingReporter) report(level string, person *rollbar.Person, err error, msg string, extras map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, reportedItem{level: level, person: person, err: err, msg: msg, extras: extras})
}

func (r *recordingReporter) wait() {
	r.waited = true
}

func newTestLogger(w io.Writer, conf *core.Config) (*RollbarLogger, *recordingReporter) {
	logger := NewRollbarLogger(w, conf)
	rb := &recordingReporter{}
	logger.rb = rb
	return logger, rb
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	conf := &core.Config{AppName: "Ekklesia", TestMode: true, RollbarToken: "token"}
	logger, rb := newTestLogger(&buf, conf)

	var exitCode int
	logger.exit = func(code int) { exitCode = code }

	sess := core.Session{UserID: "1", Username: "ana", Email: "ana@test.cd"}
	logger.Debug("hidden")
	logger.Info("schedule published", sess, map[string]interface{}{"notified": 3})
	logger.Warn("login throttled", map[string]interface{}{"ip": "10.0.0.1"})
	logger.Error("sending email", errors.New("boom"), sess)
	logger.Fatal("cannot start")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "schedule published")
	assert.Contains(t, out, "app=Ekklesia")
	assert.Contains(t, out, "user=ana")
	assert.Contains(t, out, "notified=3")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "cannot start")
	assert.Equal(t, 1, exitCode)

	// debug and info stay local
	require.Len(t, rb.items, 3)

	assert.Equal(t, rollbar.WARN, rb.items[0].level)
	assert.Nil(t, rb.items[0].person)
	assert.Equal(t, "login throttled", rb.items[0].msg)
	assert.Equal(t, "10.0.0.1", rb.items[0].extras["ip"])

	assert.Equal(t, rollbar.ERR, rb.items[1].level)
	assert.EqualError(t, rb.items[1].err, "boom")
	assert.Equal(t, &rollbar.Person{Id: "1", Username: "ana", Email: "ana@test.cd"}, rb.items[1].person)

	assert.Equal(t, rollbar.CRIT, rb.items[2].level)
	assert.Nil(t, rb.items[2].person)
	assert.True(t, rb.waited)
}

func TestRollbarLogger_debug(t *testing.T) {
	var buf bytes.Buffer
	logger, rb := newTestLogger(&buf, &core.Config{TestMode: true, Debug: true})
	logger.Debug("visible", core.Session{Username: "ana"})
	logger.Info("also visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "also visible")
	assert.Empty(t, rb.items)
	assert.False(t, isTerminal(&buf))
}

func TestRollbarLogger_concurrentSessions(t *testing.T) {
	logger, rb := newTestLogger(io.Discard, &core.Config{TestMode: true})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uname := fmt.Sprintf("user%d", i)
			logger.Error(uname, errors.New("boom"), core.Session{UserID: uname, Username: uname})
		}()
	}
	wg.Wait()

	require.Len(t, rb.items, 50)
	for _, item := range rb.items {
		require.NotNil(t, item.person)
		assert.Equal(t, item.msg, item.person.Username)
		assert.Equal(t, item.msg, item.person.Id)
	}
}

func TestRollbarLogger_extras(t *testing.T) {
	logger, rb := newTestLogger(io.Discard, &core.Config{TestMode: true})
	logger.Error("two errors", errors.New("first"), errors.New("second"), 42)

	require.Len(t, rb.items, 1)
	assert.EqualError(t, rb.items[0].err, "first")
	assert.Equal(t, []string{"second", "42"}, rb.items[0].extras["extra"])
}

package emailsvc

import (
	"bytes"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
	logsvc "github.com/trezcool/ekklesia/services/logger"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Ekklesia",
		TestMode:         true,
		DefaultFromEmail: mail.Address{Name: "Ekklesia", Address: "noreply@ekklesia.test"},
	}
}

func TestConsoleService_format(t *testing.T) {
	svc := &consoleService{defaultFromEmail: testConfig().DefaultFromEmail, subjPrefix: "[Ekklesia] "}

	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Name: "Ana", Address: "ana@test.cd"}, {Address: "beto@test.cd"}},
		Cc:          []mail.Address{{Address: "pastor@test.cd"}},
		Subject:     "Escala",
		TextContent: "hello",
		HTMLContent: "<p>hello</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, `From: "Ekklesia" <noreply@ekklesia.test>`)
	assert.Contains(t, body, "Subject: [Ekklesia] Escala\r\n")
	assert.Contains(t, body, `To: "Ana" <ana@test.cd>, <beto@test.cd>`)
	assert.Contains(t, body, "CC: <pastor@test.cd>\r\n")
	assert.NotContains(t, body, "BCC:")
	assert.Contains(t, body, "text/plain; charset=utf-8")
	assert.Contains(t, body, "<p>hello</p>")
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig())
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "ana@test.cd"}}, Subject: "Oi", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "ana@test.cd"}}, Subject: "no content"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Oi", sent[0].Subject)
	assert.Equal(t, "hello", sent[0].TextContent)
}

func TestSendgridService(t *testing.T) {
	var (
		mu   sync.Mutex
		reqs []rest.Request
		done = make(chan struct{}, 1)
	)
	orig := sendgridAPI
	t.Cleanup(func() { sendgridAPI = orig })
	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()
		done <- struct{}{}
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	conf := testConfig()
	conf.SendgridAPIKey = "key"
	svc := NewSendgridService(conf, logsvc.NewRollbarLogger(io.Discard, conf))
	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: "Ana", Address: "ana@test.cd"}},
		Bcc:     []mail.Address{{Address: "pastor@test.cd"}},
		Subject: "Escala",
		BodyStr: "hello",
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("email was not sent")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reqs, 1)
	assert.Equal(t, rest.Post, reqs[0].Method)
	assert.True(t, strings.HasSuffix(reqs[0].BaseURL, endpoint))
	assert.Equal(t, "Bearer key", reqs[0].Headers["Authorization"])

	body := string(reqs[0].Body)
	assert.Contains(t, body, `"subject":"[Ekklesia] Escala"`)
	assert.Contains(t, body, `"email":"ana@test.cd"`)
	assert.Contains(t, body, `"bcc":[{"email":"pastor@test.cd"}]`)
	assert.True(t, bytes.Contains(reqs[0].Body, []byte(`"value":"hello"`)))
}

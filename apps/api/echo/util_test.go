package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
	"github.com/trezcool/ekklesia/core/song"
	"github.com/trezcool/ekklesia/core/user"
	emailsvc "github.com/trezcool/ekklesia/services/email"
	logsvc "github.com/trezcool/ekklesia/services/logger"
	metricsvc "github.com/trezcool/ekklesia/services/metrics"
	sqlxrepos "github.com/trezcool/ekklesia/storage/database/sqlx"
	"github.com/trezcool/ekklesia/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	srv         *Server
	conf        *core.Config
	mailSvc     *emailsvc.ConsoleServiceMock
	usrRepo     user.Repository
	memberRepo  member.Repository
	songRepo    song.Repository
	financeRepo finance.Repository
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Ekklesia",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "secret",
		Locale:           "en",
		DefaultFromEmail: mail.Address{Name: "Ekklesia", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testEnv {
	conf := testConfig()
	logger := logsvc.NewRollbarLogger(io.Discard, conf)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	env := &testEnv{
		conf:        conf,
		mailSvc:     emailsvc.NewConsoleServiceMock(conf),
		usrRepo:     sqlxrepos.NewUserRepository(db),
		memberRepo:  sqlxrepos.NewMemberRepository(db),
		songRepo:    sqlxrepos.NewSongRepository(db),
		financeRepo: sqlxrepos.NewFinanceRepository(db),
	}

	// set up services
	validate, translator := core.NewValidator(user.RegisterValidators, schedule.RegisterValidators, finance.RegisterValidators)
	memberSvc := member.NewService(env.memberRepo)
	songSvc := song.NewService(env.songRepo)
	m := metricsvc.New()

	// set up server
	env.srv = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Metrics:        m,
		DisableReqLogs: true,
		UserSvc:        user.NewService(env.usrRepo),
		MemberSvc:      memberSvc,
		SongSvc:        songSvc,
		ScheduleSvc: schedule.NewService(schedule.Deps{
			Repo:     sqlxrepos.NewScheduleRepository(db),
			Members:  memberSvc,
			Songs:    songSvc,
			MailSvc:  env.mailSvc,
			Observer: m,
			AppName:  conf.AppName,
		}),
		FinanceSvc: finance.NewService(env.financeRepo, en.New()),
		Validate:   validate,
		Translator: translator,
	})
	return env
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	token, err := env.srv.auth.GenerateToken(env.srv.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (env *testEnv) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	env.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList[T any](t *testing.T, objs ...T) []byte {
	if objs == nil {
		objs = []T{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, data []byte, dest interface{}) {
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("unmarchall() failed: %v", err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body = %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

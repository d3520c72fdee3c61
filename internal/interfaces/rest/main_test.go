package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/course"
	infra "github.com/pot-code/lingo-server/internal/infrastructure"
	"github.com/pot-code/lingo-server/internal/infrastructure/uuid"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/handler"
	"github.com/pot-code/lingo-server/internal/learner"
	"github.com/pot-code/lingo-server/internal/testutil"
	"go.uber.org/zap/zaptest"
)

const tokenName = "lingo_token"

type memoryKV struct {
	mu   sync.Mutex
	keys map[string]string
}

func (kv *memoryKV) SetEX(ctx context.Context, key string, value string, expiration time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.keys[key] = value
	return nil
}

func (kv *memoryKV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.keys[key], nil
}

func (kv *memoryKV) Exists(ctx context.Context, key string) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	_, ok := kv.keys[key]
	return ok, nil
}

func (kv *memoryKV) Ping() error {
	return nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := testutil.Context(t)
	db := testutil.DB(t)

	testutil.SeedCourse(t, ctx, db, 1, "spanish")
	testutil.SeedUnit(t, ctx, db, 1, 1, 1)
	testutil.SeedLesson(t, ctx, db, 21, 1, 1)
	testutil.SeedLesson(t, ctx, db, 22, 1, 2)
	testutil.SeedChallenge(t, ctx, db, 211, 21, 1, course.ChallengeSelect)
	testutil.SeedChallenge(t, ctx, db, 212, 21, 2, course.ChallengeAssist)
	testutil.SeedChallenge(t, ctx, db, 221, 22, 1, course.ChallengeSelect)
	testutil.SeedOption(t, ctx, db, 2111, 211, true)
	testutil.SeedOption(t, ctx, db, 2112, 211, false)
	testutil.SeedOption(t, ctx, db, 2121, 212, true)

	option := new(infra.AppConfig)
	option.Env = infra.EnvProduction
	option.SessionTimeout = 30 * time.Minute
	option.SessionRefresh = 5 * time.Minute
	option.RequestTimeout = 5 * time.Second
	option.Security.JWTMethod = "HS256"
	option.Security.JWTSecret = "test-secret"
	option.Security.TokenName = tokenName
	option.Quiz.ReviewPolicy = "review_from_end"
	option.AllowOrigins = []string{"http://127.0.0.1:3000"}

	lu := learner.NewLearnerUseCase(learner.NewLearnerRepository(db), uuid.NewNanoIDGenerator(12), 3, time.Hour)
	cu := course.NewCourseUseCase(course.NewCourseRepository(db), course.DefaultOptions)
	app, err := NewServer(db, &memoryKV{keys: make(map[string]string)}, option, lu, cu, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return app
}

func do(t *testing.T, app http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func signIn(t *testing.T, app http.Handler) *http.Cookie {
	t.Helper()
	rec := do(t, app, http.MethodPost, "/api/v1/learner/sign-up",
		`{"username":"ana","email":"ana@example.com","password":"secret-password"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("sign-up status = %d, body %s", rec.Code, rec.Body)
	}
	rec = do(t, app, http.MethodPost, "/api/v1/learner/sign-in",
		`{"username":"ana","password":"secret-password"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in status = %d, body %s", rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenName {
			return c
		}
	}
	t.Fatal("sign-in did not set the token cookie")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %s: %v", rec.Body, err)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestServer(t)
	if rec := do(t, app, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLearn_Anonymous(t *testing.T) {
	app := newTestServer(t)
	rec := do(t, app, http.MethodGet, "/api/v1/learn/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	payload := new(handler.LearnPayload)
	decode(t, rec, payload)
	if payload.Progress != nil || payload.CourseProgress != nil || len(payload.Units) != 0 {
		t.Errorf("anonymous payload = %+v, want empty", payload)
	}
}

func TestSelectCourse(t *testing.T) {
	app := newTestServer(t)

	if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":1}`, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous selection status = %d, want 401", rec.Code)
	}

	token := signIn(t, app)
	if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":404}`, token); rec.Code != http.StatusNotFound {
		t.Errorf("missing course status = %d, want 404", rec.Code)
	}
	if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":0}`, token); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid course status = %d, want 400", rec.Code)
	}
	for i := 0; i < 2; i++ {
		if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":1}`, token); rec.Code != http.StatusNoContent {
			t.Fatalf("selection status = %d, body %s", rec.Code, rec.Body)
		}
	}

	rec := do(t, app, http.MethodGet, "/api/v1/learn/", "", token)
	payload := new(handler.LearnPayload)
	decode(t, rec, payload)
	if payload.Progress == nil || *payload.Progress.ActiveCourseID != 1 || payload.Progress.UserName != "ana" {
		t.Fatalf("progress = %+v", payload.Progress)
	}
	if len(payload.Units) != 1 || len(payload.Units[0].Lessons) != 2 {
		t.Errorf("units = %+v", payload.Units)
	}
	if payload.CourseProgress == nil || payload.CourseProgress.ActiveLessonID != 21 {
		t.Errorf("course progress = %+v, want lesson 21", payload.CourseProgress)
	}

	rec = do(t, app, http.MethodGet, "/api/v1/course/", "", token)
	courses := new(handler.CoursesPayload)
	decode(t, rec, courses)
	if len(courses.Courses) != 1 || courses.ActiveCourseID == nil || *courses.ActiveCourseID != 1 {
		t.Errorf("courses = %+v", courses)
	}
}

func TestSignIn_Validation(t *testing.T) {
	app := newTestServer(t)

	rec := do(t, app, http.MethodPost, "/api/v1/learner/sign-in", `{"password":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sign-in without credential status = %d, want 400", rec.Code)
	}
	payload := new(handler.RESTValidationError)
	decode(t, rec, payload)
	if len(payload.InvalidParams) != 2 {
		t.Errorf("invalid params = %+v, want identifier and password", payload.InvalidParams)
	}
}

func TestSignOut_BlacklistsToken(t *testing.T) {
	app := newTestServer(t)
	token := signIn(t, app)

	if rec := do(t, app, http.MethodPut, "/api/v1/learner/sign-out", "", token); rec.Code != http.StatusOK {
		t.Fatalf("sign-out status = %d", rec.Code)
	}
	if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":1}`, token); rec.Code != http.StatusUnauthorized {
		t.Errorf("blacklisted token status = %d, want 401", rec.Code)
	}
}

func TestLearnerExists(t *testing.T) {
	app := newTestServer(t)
	signIn(t, app)

	rec := do(t, app, http.MethodGet, "/api/v1/learner/exists?username=ana", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "true" {
		t.Errorf("exists = %d %s, want 200 true", rec.Code, rec.Body)
	}
	if rec := do(t, app, http.MethodGet, "/api/v1/learner/exists", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("exists without params status = %d, want 400", rec.Code)
	}
}

func TestGetLesson(t *testing.T) {
	app := newTestServer(t)
	token := signIn(t, app)

	if rec := do(t, app, http.MethodGet, "/api/v1/lesson/abc", "", token); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", rec.Code)
	}
	if rec := do(t, app, http.MethodGet, "/api/v1/lesson/21", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("anonymous lesson status = %d, want 404", rec.Code)
	}
	rec := do(t, app, http.MethodGet, "/api/v1/lesson/21", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("lesson status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"correct"`) {
		t.Errorf("lesson payload leaks the answer key: %s", rec.Body)
	}
	lesson := new(course.LessonModel)
	decode(t, rec, lesson)
	if len(lesson.Challenges) != 2 || len(lesson.Challenges[0].Options) != 2 {
		t.Errorf("lesson = %+v", lesson)
	}
}

type quizMessage struct {
	Type  string `json:"type"`
	State *struct {
		Title     string `json:"title"`
		Challenge struct {
			ID int `json:"id"`
		} `json:"challenge"`
		Hearts int    `json:"hearts"`
		State  string `json:"state"`
	} `json:"state"`
	Result *struct {
		Correct    bool   `json:"correct"`
		Hearts     int    `json:"hearts"`
		Percentage int    `json:"percentage"`
		State      string `json:"state"`
	} `json:"result"`
	Error string `json:"error"`
}

func TestQuizSession(t *testing.T) {
	app := newTestServer(t)
	token := signIn(t, app)
	if rec := do(t, app, http.MethodPut, "/api/v1/progress/course", `{"course_id":1}`, token); rec.Code != http.StatusNoContent {
		t.Fatalf("selection status = %d", rec.Code)
	}

	srv := httptest.NewServer(app)
	defer srv.Close()
	header := http.Header{}
	header.Set("Cookie", tokenName+"="+token.Value)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws/quiz/21", header)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	read := func() *quizMessage {
		t.Helper()
		msg := new(quizMessage)
		if err := conn.ReadJSON(msg); err != nil {
			t.Fatalf("read error = %v", err)
		}
		return msg
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if strings.Contains(string(raw), `"correct"`) {
		t.Errorf("quiz state leaks the answer key: %s", raw)
	}
	msg := new(quizMessage)
	if err := json.Unmarshal(raw, msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "state" || msg.State.Challenge.ID != 211 || msg.State.Hearts != 5 {
		t.Fatalf("initial message = %+v", msg)
	}

	steps := []struct {
		option     int
		correct    bool
		hearts     int
		percentage int
		state      string
	}{
		{2112, false, 4, 0, "in_progress"},
		{2111, true, 4, 50, "in_progress"},
		{2121, true, 4, 100, "completed"},
	}
	for _, step := range steps {
		if err := conn.WriteJSON(map[string]int{"option_id": step.option}); err != nil {
			t.Fatal(err)
		}
		msg := read()
		if msg.Type != "result" || msg.Result == nil {
			t.Fatalf("message = %+v, want result", msg)
		}
		r := msg.Result
		if r.Correct != step.correct || r.Hearts != step.hearts || r.Percentage != step.percentage || r.State != step.state {
			t.Errorf("answer %d result = %+v", step.option, r)
		}
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal closure, got %v", err)
	}

	rec := do(t, app, http.MethodGet, "/api/v1/learn/", "", token)
	payload := new(handler.LearnPayload)
	decode(t, rec, payload)
	if payload.Progress.Hearts != 4 || payload.Progress.Points != 20 {
		t.Errorf("hearts, points = %d, %d, want 4, 20", payload.Progress.Hearts, payload.Progress.Points)
	}
	if payload.CourseProgress == nil || payload.CourseProgress.ActiveLessonID != 22 {
		t.Errorf("course progress = %+v, want lesson 22", payload.CourseProgress)
	}
}

func TestCORS(t *testing.T) {
	app := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/course/", nil)
	req.Header.Set(echo.HeaderOrigin, "http://127.0.0.1:3000")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://127.0.0.1:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowCredentials); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/course/", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.example")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign preflight status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Errorf("foreign origin got Access-Control-Allow-Origin = %q", got)
	}
}

func TestQuizSession_ForeignOrigin(t *testing.T) {
	app := newTestServer(t)
	token := signIn(t, app)

	srv := httptest.NewServer(app)
	defer srv.Close()
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/quiz/21"

	header := http.Header{}
	header.Set("Cookie", tokenName+"="+token.Value)
	header.Set("Origin", "http://evil.example")
	conn, resp, err := websocket.DefaultDialer.Dial(endpoint, header)
	if err == nil {
		conn.Close()
		t.Fatal("handshake from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("handshake response = %v, want 403", resp)
	}

	header.Set("Origin", "http://127.0.0.1:3000")
	conn, _, err = websocket.DefaultDialer.Dial(endpoint, header)
	if err != nil {
		t.Fatalf("handshake from an allowed origin error = %v", err)
	}
	conn.Close()
}

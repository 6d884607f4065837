package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	backend "medai-backend/internal/api"
	"medai-backend/internal/auth"
	"medai-backend/internal/catalog"
	"medai-backend/internal/dashboards"
	"medai-backend/internal/database"
	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"
	"medai-backend/internal/session"
	"medai-backend/internal/storage"
	"medai-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInference answers like the Flask inference service.
type fakeInference struct {
	status  atomic.Int32
	gradcam atomic.Value
}

func (f *fakeInference) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if code := int(f.status.Load()); code != 0 {
		http.Error(w, "boom", code)
		return
	}

	res := map[string]any{
		"prediction":        "BACTERIAL PNEUMONIA",
		"confidence":        0.8,
		"all_probabilities": map[string]float64{"normal": 0.1, "bacterial": 0.8, "viral": 0.1},
		"gradcam":           nil,
		"processing_time":   "0.05s",
		"model_used":        r.FormValue("model"),
	}
	if r.FormValue("generate_gradcam") == "true" {
		res["gradcam"] = f.gradcam.Load()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

type testEnv struct {
	router    http.Handler
	inference *fakeInference
	provider  *storage.LocalProvider
	token     string
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.InMemory)
	require.NoError(t, err)

	models, err := catalog.Load(context.Background(), db)
	require.NoError(t, err)

	inference := &fakeInference{}
	inference.gradcam.Store("data:image/png;base64,iVBORw0KGgo=")
	server := httptest.NewServer(inference)
	t.Cleanup(server.Close)

	client, err := prediction.NewClient(prediction.Config{Endpoint: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	gate, err := auth.NewTokenGate("secret", map[string]string{"alice": "pw", "bob": "pw"}, time.Hour)
	require.NoError(t, err)

	sessions := session.NewStore(8, session.Dependencies{
		Intake:    intake.New(intake.Config{}),
		Predictor: client,
		Models:    models,
	})

	service := backend.NewBackendService(gate, models, sessions, dashboards.NewService(db, provider, "federated"), 0)
	router := chi.NewRouter()
	router.Route("/api/v1", service.AddRoutes)

	env := &testEnv{router: router, inference: inference, provider: provider}
	env.token = env.login(t, "alice", "pw")
	return env
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	var res api.LoginResponse
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Username: username, Password: password}, &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return res.Token
}

func (env *testEnv) do(t *testing.T, method, endpoint, token string, payload any, dest any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if dest != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
	}
	return rec
}

func (env *testEnv) upload(t *testing.T, sessionId, filename string, data []byte, dest any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionId+"/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if dest != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
	}
	return rec
}

func (env *testEnv) newSession(t *testing.T) string {
	var res api.CreateSessionResponse
	rec := env.do(t, http.MethodPost, "/api/v1/sessions", env.token, nil, &res)
	require.Equal(t, http.StatusOK, rec.Code)
	return res.Id.String()
}

func chestXray(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 64))))
	return buf.Bytes()
}

func TestHealthIsPublic(t *testing.T) {
	env := setup(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireSignIn(t *testing.T) {
	env := setup(t)

	for _, endpoint := range []string{"/api/v1/models", "/api/v1/auth/me", "/api/v1/dashboards/comparison"} {
		rec := env.do(t, http.MethodGet, endpoint, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, endpoint)
		assert.Equal(t, "/login", rec.Header().Get("Location"), endpoint)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/models", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLogout(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Username: "alice", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var me api.User
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", env.token, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.User{Username: "alice"}, me)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", env.token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", env.token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Username: "bob", Password: "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, backend.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "bob")
}

func TestListModels(t *testing.T) {
	env := setup(t)

	var models []api.Model
	rec := env.do(t, http.MethodGet, "/api/v1/models", env.token, nil, &models)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, models, 5)
	assert.Equal(t, api.Model{Id: "cnn", Name: "CNN", Description: "Basic Convolutional Neural Network", Accuracy: "92.5%"}, models[0])
}

func TestPredictionFlow(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	var view api.Session
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/classify", env.token, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload an image and select a model")

	rec = env.upload(t, id, "chest.png", chestXray(t), &view)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, view.Asset)
	assert.Equal(t, "chest.png", view.Asset.Filename)
	assert.Equal(t, "image/png", view.Asset.MediaType)
	assert.Equal(t, "File uploaded successfully", view.Notice.Title)

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/model", env.token, api.SelectModelRequest{ModelId: "gpt-4"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/model", env.token, api.SelectModelRequest{ModelId: "resnet50"}, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resnet50", view.ModelId)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/explain", env.token, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/classify", env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, view.Result)
	assert.Equal(t, "Bacterial", view.Result.Label)
	assert.Equal(t, "Bacterial Pneumonia", view.Result.LabelText)
	assert.Equal(t, "80.0%", view.Result.ConfidenceText)
	assert.Equal(t, "text-red-600", view.Result.Style.Color)
	require.Len(t, view.Result.Bars, 3)
	assert.Equal(t, []string{"Normal", "Bacterial", "Viral"}, []string{view.Result.Bars[0].Label, view.Result.Bars[1].Label, view.Result.Bars[2].Label})
	assert.Equal(t, "10.0%", view.Result.Bars[0].Text)
	assert.True(t, view.ExplainOffered)
	assert.Equal(t, "not_requested", view.Explanation.State)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/explain", env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image", view.Explanation.State)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", view.Explanation.Image)
	assert.Equal(t, "Grad-CAM Generated", view.Notice.Title)
	require.NotNil(t, view.Result)

	env.inference.gradcam.Store("normal")
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/explain", env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_applicable", view.Explanation.State)
	assert.NotEmpty(t, view.Explanation.Message)
}

func TestDisconnectedCallerDoesNotAbortPrediction(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	require.Equal(t, http.StatusOK, env.upload(t, id, "chest.png", chestXray(t), nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/model", env.token, api.SelectModelRequest{ModelId: "cnn"}, nil).Code)

	post := func(endpoint string) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+endpoint, nil).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+env.token)
		env.router.ServeHTTP(httptest.NewRecorder(), req)
	}

	post("/classify")

	var view api.Session
	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, view.Result)
	assert.Equal(t, "Bacterial", view.Result.Label)
	assert.Equal(t, "Prediction Complete", view.Notice.Title)

	post("/explain")

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image", view.Explanation.State)
	assert.Equal(t, "Grad-CAM Generated", view.Notice.Title)
}

func TestPredictionFailureIsBadGateway(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	require.Equal(t, http.StatusOK, env.upload(t, id, "chest.png", chestXray(t), nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/model", env.token, api.SelectModelRequest{ModelId: "cnn"}, nil).Code)

	env.inference.status.Store(http.StatusInternalServerError)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/classify", env.token, nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), prediction.GenericFailureMessage)

	var view api.Session
	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, view.Result)
	assert.Equal(t, "Prediction Failed", view.Notice.Title)
	assert.Equal(t, "destructive", view.Notice.Level)
}

func TestUploadRejections(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	var view api.Session
	require.Equal(t, http.StatusOK, env.upload(t, id, "chest.png", chestXray(t), &view).Code)

	rec := env.upload(t, id, "notes.txt", []byte("hello"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a valid image file (PNG, JPG, JPEG, DICOM)")

	rec = env.upload(t, id, "huge.png", make([]byte, 12<<20), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "File size must be less than 10 MB")

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, env.token, nil, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, view.Asset)
	assert.Equal(t, "chest.png", view.Asset.Filename)
	assert.Equal(t, "Upload Error", view.Notice.Title)
}

func TestPreview(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/preview", env.token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, env.upload(t, id, "chest.png", chestXray(t), nil).Code)

	require.Eventually(t, func() bool {
		rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/preview", env.token, nil, nil)
		return rec.Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	var preview api.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "ready", preview.State)
	assert.True(t, strings.HasPrefix(preview.Image, "data:image/png;base64,"))
}

func TestSessionsAreOwned(t *testing.T) {
	env := setup(t)
	id := env.newSession(t)

	bob := env.login(t, "bob", "pw")
	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, bob, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid", env.token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, env.token, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, env.token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboards(t *testing.T) {
	env := setup(t)

	var comparison api.ComparisonResponse
	rec := env.do(t, http.MethodGet, "/api/v1/dashboards/comparison", env.token, nil, &comparison)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "federated", comparison.Best.Id)
	assert.Len(t, comparison.Matrices, 5)

	var federated api.FederatedResponse
	rec = env.do(t, http.MethodGet, "/api/v1/dashboards/federated", env.token, nil, &federated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, federated.SelectedRound.Round)
	assert.Len(t, federated.Hospitals, 8)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboards/federated?round=4", env.token, nil, &federated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 87.9, federated.SelectedRound.Accuracy)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboards/federated?round=42", env.token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboards/federated?round=abc", env.token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, env.provider.PutObject(context.Background(), "federated", "global_model.h5", bytes.NewReader([]byte("weights"))))
	var status api.FederatedStatusResponse
	rec = env.do(t, http.MethodGet, "/api/v1/dashboards/federated/status", env.token, nil, &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, status.ModelExists)
	assert.Equal(t, "global_model.h5", status.ModelKey)
}

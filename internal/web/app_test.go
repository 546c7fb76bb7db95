package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"cphorme/internal/auth"
	"cphorme/internal/backend"
	"cphorme/internal/config"
	"cphorme/internal/i18n"
	"cphorme/internal/logger"
	"cphorme/internal/telemetry"
	"cphorme/internal/validator"
	"cphorme/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "ahmed@offsechq.com"
	testPassword = "mypassword"
	testDoctorID = "5a2f0bc2-6f27-4ab0-8418-e505a08b07e4"
)

const patientsJSON = `[
	{"id":"p1","name":"Mary Johnson","date_of_birth":"1990-01-15","gender":"female","phone":"0912345678","blood_type":"O+","allergies":["Penicillin"]},
	{"id":"p2","name":"John Smith","date_of_birth":"1985-03-02","gender":"male","phone":"0998765432","blood_type":"A-"}
]`

const reportJSON = `{"id":"r1","patient_id":"p-missing","doctor_id":"d1",
	"subjective":"Shortness of breath at night","assessment":"Mild persistent asthma",
	"plan":"Inhaled corticosteroids","medications":"Budesonide","diagnosis":"Asthma",
	"vitals":[{"height":170,"weight":70,"temperature":37.2,"bloodPressureSystolic":120,"bloodPressureDiastolic":80}],
	"created_at":"2025-05-01T10:00:00Z"}`

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// fakeAPI stands in for the remote patient/report API. Every write is
// recorded under its "METHOD path" route.
type fakeAPI struct {
	mu           sync.Mutex
	patientsBody string
	writes       map[string][]map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	route := r.Method + " " + r.URL.Path
	var payload map[string]any
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.writes == nil {
			f.writes = map[string][]map[string]any{}
		}
		f.writes[route] = append(f.writes[route], payload)
	}

	w.Header().Set("Content-Type", "application/json")
	switch route {
	case "GET /api/v1/patient":
		io.WriteString(w, f.patientsBody)
	case "GET /api/v1/patient/p1":
		io.WriteString(w, `{"id":"p1","name":"Mary Johnson","date_of_birth":"1990-01-15","gender":"female"}`)
	case "POST /api/v1/patient":
		w.WriteHeader(http.StatusCreated)
		if payload["name"] == "No Echo" {
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "p9", "name": payload["name"]})
	case "PUT /api/v1/patient/update/p1":
		// the update endpoint answers without the record
	case "GET /api/v1/report":
		io.WriteString(w, "["+reportJSON+"]")
	case "GET /api/v1/report/r1":
		io.WriteString(w, reportJSON)
	case "POST /api/v1/report":
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "r2", "patient_id": payload["patient_id"]})
	case "PUT /api/v1/report/r1":
		json.NewEncoder(w).Encode(map[string]any{"id": "r1", "patient_id": payload["patient_id"]})
	case "GET /api/v1/doctor/d1":
		io.WriteString(w, `{"id":"d1","name":"Dr. Ahmed"}`)
	case "POST /signup":
		io.WriteString(w, `{"message":"Check your inbox"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) payloads(route string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[route]
}

func (f *fakeAPI) createdPayloads() []map[string]any {
	return f.payloads("POST /api/v1/patient")
}

// client replays cookies between requests the way a browser would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
	token   string
}

func newClient(t *testing.T, api *fakeAPI) *client {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg := config.Config{
		Server: config.ServerConfig{Environment: config.EnvironmentTest},
		Backend: config.BackendConfig{
			BaseURL:   server.URL,
			SignupURL: server.URL + "/signup",
			Timeout:   5 * time.Second,
		},
		Session: config.SessionConfig{CookieName: "SID", Expiration: time.Hour},
		Auth: config.AuthConfig{
			Email:       testEmail,
			UserID:      "1",
			Username:    "Ahmed",
			DoctorID:    testDoctorID,
			MaxAttempts: 3,
			AttemptsTTL: time.Minute,
		},
		Telemetry: config.TelemetryConfig{ServiceName: "cphorme-test"},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Auth.PasswordHash = string(hash)

	log := logger.Discard()
	authenticator, err := auth.NewAuthenticator(log, cfg.Auth)
	require.NoError(t, err)
	remote, err := backend.New(cfg.Backend, server.Client())
	require.NoError(t, err)
	tel, err := telemetry.New(cfg.Telemetry)
	require.NoError(t, err)
	translator := i18n.NewTranslator(i18n.EN)
	require.NoError(t, translator.LoadTranslations())

	app := web.NewApp(web.Dependencies{
		Config:        cfg,
		Logger:        log,
		Telemetry:     tel,
		Backend:       remote,
		Authenticator: authenticator,
		Translator:    translator,
		Validator:     validator.New(),
		Now:           func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})

	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" || cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	resp.Body.Close()

	if m := csrfPattern.FindStringSubmatch(string(body)); m != nil {
		c.token = m[1]
	}
	return resp, string(body)
}

func (c *client) get(target string) (*http.Response, string) {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// post submits a form with the CSRF token of the last rendered page.
func (c *client) post(target string, values url.Values) (*http.Response, string) {
	values.Set("csrf_token", c.token)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return c.do(req)
}

func (c *client) login() {
	c.t.Helper()
	c.get("/login/doctor")
	resp, _ := c.post("/login/doctor", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(c.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(c.t, "/dashboard", resp.Header.Get("Location"))
}

func validPatient() url.Values {
	return url.Values{
		"name":              {"Sara Ali"},
		"birthdate":         {"1992-04-10"},
		"gender":            {"female"},
		"occupation":        {"Teacher"},
		"address":           {"Street 12, Khartoum North"},
		"phone":             {"0911223344"},
		"origin_state":      {"Khartoum"},
		"emergency_contact": {"0922334455"},
		"email":             {"sara@example.com"},
		"blood_type":        {"B+"},
		"allergies":         {"Penicillin", "Peanuts"},
		"action":            {"save"},
	}
}

func validReport() url.Values {
	return url.Values{
		"patient_id":  {"p1"},
		"subjective":  {"Wheezing after exercise"},
		"assessment":  {"Exercise induced asthma"},
		"plan":        {"Salbutamol before exercise"},
		"medications": {"Salbutamol"},
		"diagnosis":   {"Asthma"},
		"height":      {"170"},
		"weight":      {"70"},
		"temperature": {"37"},
		"systolic":    {"120"},
		"diastolic":   {"80"},
	}
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials open the dashboard", func(t *testing.T) {
		c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
		c.login()

		resp, body := c.get("/dashboard")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Welcome back!")
		assert.Contains(t, body, "Asthma")
		assert.Contains(t, body, "p-missing")
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
		c.get("/login/doctor")

		resp, body := c.post("/login/doctor", url.Values{"email": {testEmail}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, "Invalid email or password.")
	})

	t.Run("missing csrf token is forbidden", func(t *testing.T) {
		c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
		c.get("/login/doctor")
		c.token = ""

		resp, _ := c.post("/login/doctor", url.Values{"email": {testEmail}, "password": {testPassword}})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
	c.login()
	c.get("/dashboard")

	resp, _ := c.post("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = c.get("/patients")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login/doctor", resp.Header.Get("Location"))
}

func TestLogout_RequiresPost(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
	c.login()

	resp, _ := c.get("/logout")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.get("/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPortalRequiresSession(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})

	for _, path := range []string{"/dashboard", "/patients", "/patients/p1", "/add-patient", "/reports", "/add-report"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login/doctor", resp.Header.Get("Location"), path)
	}
}

func TestPatients(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		target   string
		count    int
		contains string
	}{
		{"all", patientsJSON, "/patients", 2, "John Smith"},
		{"search", patientsJSON, "/patients?q=mary", 1, "Mary Johnson"},
		{"malformed", `{"unexpected":true}`, "/patients", 0, "The server sent an unexpected response."},
		{"cards", patientsJSON, "/patients?view=cards", 2, `class="card" data-testid="patient"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, &fakeAPI{patientsBody: tt.body})
			c.login()

			resp, body := c.get(tt.target)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.count, strings.Count(body, `data-testid="patient"`))
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestPatientDetail_NotFound(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
	c.login()

	resp, body := c.get("/patients/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Patient Not Found")
}

func TestAddPatient(t *testing.T) {
	t.Run("saves every field", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()
		c.get("/add-patient")

		resp, _ := c.post("/add-patient", validPatient())
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/patients/p9", resp.Header.Get("Location"))

		payloads := api.createdPayloads()
		require.Len(t, payloads, 1)
		for _, key := range []string{"name", "date_of_birth", "gender", "occupation", "address", "phone",
			"email", "origin_state", "emergency_contact", "blood_type", "allergies", "operations"} {
			assert.Contains(t, payloads[0], key)
		}
		assert.Equal(t, []any{"Penicillin", "Peanuts"}, payloads[0]["allergies"])
		assert.Equal(t, []any{}, payloads[0]["operations"])

		_, body := c.get("/patients")
		assert.Contains(t, body, "Patient Added Successfully")
	})

	t.Run("list action re-renders without saving", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()
		c.get("/add-patient")

		values := validPatient()
		values.Set("action", "add-allergy")
		values.Set("new_allergy", "Latex")
		resp, body := c.post("/add-patient", values)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `name="allergies" value="Latex"`)
		assert.Empty(t, api.createdPayloads())
	})

	t.Run("invalid form is not sent", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()
		c.get("/add-patient")

		values := validPatient()
		values.Set("address", "short")
		resp, body := c.post("/add-patient", values)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, "Must be at least 10 characters")
		assert.Contains(t, body, "Validation Error")
		assert.Empty(t, api.createdPayloads())
	})

	t.Run("save without echo resets the form", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()
		c.get("/add-patient")

		values := validPatient()
		values.Set("name", "No Echo")
		resp, _ := c.post("/add-patient", values)

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/add-patient", resp.Header.Get("Location"))
	})
}

func TestEditPatient(t *testing.T) {
	api := &fakeAPI{patientsBody: patientsJSON}
	c := newClient(t, api)
	c.login()

	resp, body := c.get("/patients/p1/edit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Mary Johnson")

	values := validPatient()
	values.Set("name", "Mary Johnson-Ali")
	resp, _ = c.post("/patients/p1/edit", values)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/patients/p1", resp.Header.Get("Location"))

	updates := api.payloads("PUT /api/v1/patient/update/p1")
	require.Len(t, updates, 1)
	assert.Equal(t, "Mary Johnson-Ali", updates[0]["name"])
	assert.Empty(t, api.createdPayloads())
}

func TestSubmitReport(t *testing.T) {
	t.Run("create attributes the signed-in doctor", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()
		c.get("/add-report")

		resp, _ := c.post("/add-report", validReport())
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/reports/r2", resp.Header.Get("Location"))

		created := api.payloads("POST /api/v1/report")
		require.Len(t, created, 1)
		assert.Equal(t, testDoctorID, created[0]["doctor_id"])
		assert.Equal(t, "p1", created[0]["patient_id"])
		assert.Equal(t, "Asthma", created[0]["diagnosis"])
		vitals, ok := created[0]["vitals"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 120.0, vitals["bloodPressureSystolic"])
		assert.Equal(t, "2025-06-01T12:00:00Z", vitals["recordedAt"])
	})

	t.Run("edit puts to the report and opens it", func(t *testing.T) {
		api := &fakeAPI{patientsBody: patientsJSON}
		c := newClient(t, api)
		c.login()

		resp, body := c.get("/reports/r1/edit")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Budesonide")

		resp, _ = c.post("/reports/r1/edit", validReport())
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/reports/r1", resp.Header.Get("Location"))

		updates := api.payloads("PUT /api/v1/report/r1")
		require.Len(t, updates, 1)
		assert.Equal(t, testDoctorID, updates[0]["doctor_id"])
		assert.Empty(t, api.payloads("POST /api/v1/report"))
	})

	t.Run("invalid form keeps the validation notice when patients fail", func(t *testing.T) {
		api := &fakeAPI{patientsBody: `{"unexpected":true}`}
		c := newClient(t, api)
		c.login()
		c.get("/add-report")

		values := validReport()
		values.Set("plan", "short")
		resp, body := c.post("/add-report", values)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, "Validation Error")
		assert.Equal(t, 1, strings.Count(body, "Failed to load patients. Please refresh the page."))
		assert.Empty(t, api.payloads("POST /api/v1/report"))
	})
}

func TestDashboard_DegradesPerSection(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: `{"unexpected":true}`})
	c.login()

	resp, body := c.get("/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "The server sent an unexpected response.")
	assert.Contains(t, body, "Asthma")
	assert.Contains(t, body, "p-missing")
}

func TestPatients_PartialList(t *testing.T) {
	body := `[{"id":"p1","name":"Mary Johnson","phone":912345678}, "garbage", {"id":"p2","name":"John Smith"}]`
	c := newClient(t, &fakeAPI{patientsBody: body})
	c.login()

	resp, page := c.get("/patients")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(page, `data-testid="patient"`))
	assert.Contains(t, page, "912345678")
	assert.Contains(t, page, "Some records could not be read and are not shown.")
}

func TestReportDetail_FailedPatientLookup(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
	c.login()

	resp, body := c.get("/reports/r1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "p-missing")
	assert.Contains(t, body, "Dr. Ahmed")
	assert.Contains(t, body, "120/80 mmHg")
}

func TestReports(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
	c.login()

	resp, body := c.get("/reports?q=ahmed")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, strings.Count(body, `data-testid="report"`))

	_, body = c.get("/reports?q=malaria")
	assert.Equal(t, 0, strings.Count(body, `data-testid="report"`))
}

func TestSignup(t *testing.T) {
	values := url.Values{
		"username":     {"ahmed"},
		"email":        {"ahmed@example.com"},
		"password":     {"supersecret"},
		"organization": {"Cphorme Clinic"},
		"licence_no":   {"SD-1234"},
		"phone":        {"0912345678"},
		"specialty":    {"General practice"},
	}

	t.Run("forwards to the signup service", func(t *testing.T) {
		c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
		c.get("/signup")

		resp, _ := c.post("/signup", values)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login/doctor", resp.Header.Get("Location"))

		_, body := c.get("/login/doctor")
		assert.Contains(t, body, "Check your inbox")
	})

	t.Run("honeypot blocks the client", func(t *testing.T) {
		c := newClient(t, &fakeAPI{patientsBody: patientsJSON})
		c.get("/signup")

		bot := url.Values{"website": {"http://spam.example"}}
		for k, v := range values {
			bot[k] = v
		}
		resp, _ := c.post("/signup", bot)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = c.get("/")
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestPublicPages(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})

	resp, body := c.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health web.HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, web.HealthStatusHealthy, health.Status)

	resp, body = c.get("/insights.csv")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(body, "state,population,malaria,cholera,dengue"))

	resp, body = c.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Oops! Page not found")
}

func TestSwitchLanguage(t *testing.T) {
	c := newClient(t, &fakeAPI{patientsBody: patientsJSON})

	resp, _ := c.get("/lang/nl")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := c.get("/")
	assert.Contains(t, body, `<html lang="nl">`)
}

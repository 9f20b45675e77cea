package web

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/bulk"
	"github.com/joalafu15/Backend/internal/service/cloud"
	"github.com/joalafu15/Backend/internal/service/store"
	"github.com/joalafu15/Backend/internal/service/web/middleware"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-gonic/gin"
)

const (
	testNationalID = "1012345678"
	testPhone      = "0551234567"
	testCode       = "123456"
	testPassword   = "password1"
)

type testResponse struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

type testServer struct {
	router *gin.Engine
	mem    *store.Memory
}

func newTestServer(t *testing.T, limiter middleware.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir, err := ioutil.TempDir("", "hiring-web")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	conf := &utils.Config{
		JwtKey: "test-key",
		SMS:    &utils.SMSConfig{Provider: "test", FixedCodes: map[string]string{testPhone: testCode}},
		Upload: utils.UploadConfig{Dir: dir},
	}
	conf.FillDefault()

	mem := store.NewMemory()
	mem.PutAdministration(model.AdministrationDo{ID: "adm1", Name: "Riyadh"})
	mem.PutSector(model.SectorDo{ID: "5", Name: "North", JobPositionIDs: []string{"job1"}})
	mem.PutSector(model.SectorDo{ID: "9", Name: "South", JobPositionIDs: []string{"job2"}})
	mem.PutSchool(model.SchoolDo{ID: "sch1", Name: "School 1", SectorID: "5", JobPositionIDs: []string{"job1"}})
	for _, c := range []*model.CandidateDo{
		{ID: "c1", NationalIDNumber: testNationalID, FullName: "Sara", PhoneNumber: testPhone, JobPositionID: "job1"},
		{ID: "c2", NationalIDNumber: "1012345679", FullName: "Omar", PhoneNumber: "0557654321"},
	} {
		if err := mem.CreateCandidate(nil, c); err != nil {
			t.Fatal(err)
		}
	}
	s := store.FromMemory(mem)
	sender, err := cloud.NewSmsSender(conf, nil)
	if err != nil {
		t.Fatal(err)
	}
	services := workflow.NewServices(s, workflow.Dependencies{
		SmsCode: cloud.NewSmsCodeService(mem, sender, conf, nil),
		Storage: cloud.NewLocalFileStorage(dir),
	}, conf, nil)
	if err := services.Registration.EnsureAdmin(nil, "root", "rootpassword"); err != nil {
		t.Fatal(err)
	}
	router, err := NewRouter(conf, Dependencies{
		Services:   services,
		Reconciler: bulk.NewReconciler(s, services.Allocator, nil, 2, nil),
		Actions:    mem,
		Limiter:    limiter,
		FilesDir:   dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{router: router, mem: mem}
}

func (s *testServer) do(t *testing.T, method string, path string, token string, body interface{}) testResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) testResponse {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status %d", req.Method, req.URL.Path, w.Code)
	}
	var resp testResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: bad body %s", req.Method, req.URL.Path, w.Body.String())
	}
	return resp
}

func (s *testServer) login(t *testing.T, username string, password string) string {
	t.Helper()
	resp := s.do(t, "POST", "/v1/login", "", map[string]string{"username": username, "password": password})
	if resp.Code != 0 {
		t.Fatalf("login %s: %+v", username, resp)
	}
	var login model.LoginResponse
	if err := json.Unmarshal(resp.Data, &login); err != nil {
		t.Fatal(err)
	}
	return login.Token
}

func (s *testServer) signUp(t *testing.T) string {
	t.Helper()
	resp := s.do(t, "POST", "/v1/registration/sign-up", "", map[string]string{
		"nationalIdNumber": testNationalID,
		"code":             testCode,
		"password":         testPassword,
	})
	if resp.Code != 0 {
		t.Fatalf("sign up: %+v", resp)
	}
	return s.login(t, testNationalID, testPassword)
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, "POST", "/v1/registration/otp", "", map[string]string{"nationalIdNumber": testNationalID})
	if resp.Code != 0 || !strings.Contains(string(resp.Data), "055*****67") {
		t.Fatalf("otp: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Error("response carries no request id")
	}
	resp = s.do(t, "POST", "/v1/registration/otp", "", map[string]string{"nationalIdNumber": "9999999999"})
	if resp.Code != model.ResponseErrorForbidden {
		t.Errorf("unknown national id: %+v", resp)
	}
	resp = s.do(t, "POST", "/v1/registration/otp", "", map[string]string{"nationalIdNumber": "12"})
	if resp.Code != model.ResponseErrorValidation {
		t.Errorf("malformed national id: %+v", resp)
	}

	token := s.signUp(t)
	resp = s.do(t, "POST", "/v1/registration/verify-national-id", "", map[string]string{"nationalIdNumber": testNationalID})
	if resp.Code != model.ResponseErrorConflict {
		t.Errorf("registered national id: %+v", resp)
	}

	if resp = s.do(t, "GET", "/v1/candidates/c1", token, nil); resp.Code != 0 {
		t.Errorf("own record: %+v", resp)
	}
	if resp = s.do(t, "GET", "/v1/candidates/c2", token, nil); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("foreign record: %+v", resp)
	}
	if resp = s.do(t, "POST", "/v1/logout", token, nil); resp.Code != 0 {
		t.Fatalf("logout: %+v", resp)
	}
	if resp = s.do(t, "GET", "/v1/candidates/c1", token, nil); resp.Code != model.ResponseErrorNotLoggedIn {
		t.Errorf("after logout: %+v", resp)
	}
	if resp = s.do(t, "GET", "/v1/candidates/c1", "", nil); resp.Code != model.ResponseErrorNotLoggedIn {
		t.Errorf("no token: %+v", resp)
	}
}

func TestGateErrorsAreDistinguishable(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t)
	accept := map[string]bool{"accepted": true}

	if resp := s.do(t, "POST", "/v1/candidates/c1/accept-offer", token, accept); resp.Code != model.ResponseErrorPrecondition {
		t.Errorf("offer before terms: %+v", resp)
	}
	if resp := s.do(t, "POST", "/v1/candidates/c1/accept-terms", token, accept); resp.Code != 0 {
		t.Fatalf("accept terms: %+v", resp)
	}
	if resp := s.do(t, "POST", "/v1/candidates/c1/accept-terms", token, accept); resp.Code != model.ResponseErrorConflict {
		t.Errorf("accept terms twice: %+v", resp)
	}

	admin := s.login(t, "root", "rootpassword")
	lock := map[string]interface{}{"active": true, "value": ""}
	if resp := s.do(t, "PUT", "/v1/settings/lockPhase1", admin, lock); resp.Code != 0 {
		t.Fatalf("lock phase 1: %+v", resp)
	}
	if resp := s.do(t, "PUT", "/v1/candidates/c1/information", token, map[string]string{"fullName": "Sara Ali"}); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("information under lock: %+v", resp)
	}
	resp := s.do(t, "GET", "/v1/candidates/c1/settings", token, nil)
	var settings model.CandidateSettings
	if err := json.Unmarshal(resp.Data, &settings); err != nil || !settings.LockPhase1 || settings.LockPhase2 {
		t.Errorf("candidate settings: %+v", resp)
	}
}

func TestStaffRoutesRequireRole(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t)
	if resp := s.do(t, "GET", "/v1/settings/lockPhase1", token, nil); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("candidate reading settings: %+v", resp)
	}
	if resp := s.do(t, "PUT", "/v1/candidates/c1/outcomes/files-matched", token, map[string]bool{"value": true}); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("candidate setting outcome: %+v", resp)
	}

	admin := s.login(t, "root", "rootpassword")
	committee := map[string]string{"username": "committee1", "password": "committeepass", "role": "committee", "administrationId": "adm1"}
	if resp := s.do(t, "POST", "/v1/accounts", admin, committee); resp.Code != 0 {
		t.Fatalf("create committee account: %+v", resp)
	}
	member := s.login(t, "committee1", "committeepass")
	if resp := s.do(t, "PUT", "/v1/candidates/c1/outcomes/passed-interview", member, map[string]bool{"value": true}); resp.Code != 0 {
		t.Errorf("committee interview outcome: %+v", resp)
	}
	if resp := s.do(t, "PUT", "/v1/candidates/c1/outcomes/files-matched", member, map[string]bool{"value": true}); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("committee files outcome: %+v", resp)
	}
	resp := s.do(t, "GET", "/v1/interview-status/"+testNationalID, "", nil)
	if resp.Code != 0 || !strings.Contains(string(resp.Data), `"conductedInterview":true`) {
		t.Errorf("interview status: %+v", resp)
	}
}

func TestOtpRateLimit(t *testing.T) {
	s := newTestServer(t, middleware.NewMemoryLimiter(1, time.Minute))
	body := map[string]string{"nationalIdNumber": testNationalID}
	if resp := s.do(t, "POST", "/v1/registration/otp", "", body); resp.Code != 0 {
		t.Fatalf("first otp: %+v", resp)
	}
	if resp := s.do(t, "POST", "/v1/registration/otp", "", body); resp.Code != model.ResponseErrorTooManyRequests {
		t.Errorf("second otp: %+v", resp)
	}
}

func TestBulkUpdateUpload(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "root", "rootpassword")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "update.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("nationalIdNumber,email,userId\n" + testNationalID + ",sara@example.com,x\n2000000000,a@example.com,\n"))
	mw.Close()

	req := httptest.NewRequest("POST", "/v1/bulk/update", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := s.send(t, req, admin)
	if resp.Code != 0 {
		t.Fatalf("bulk update: %+v", resp)
	}
	var report model.BulkReport
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Success != 1 || report.Skipped != 1 || len(report.IgnoredColumns) != 1 {
		t.Errorf("report = %+v", report)
	}
	c, _ := s.mem.GetCandidate(nil, "c1")
	if c.Email != "sara@example.com" || c.UserID != "" {
		t.Errorf("candidate = %+v", c)
	}

	if resp := s.do(t, "POST", "/v1/bulk/delete-everything", admin, nil); resp.Code != model.ResponseErrorNotFound {
		t.Errorf("unknown operation: %+v", resp)
	}
}

func TestActionLogAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	if resp := s.do(t, "GET", "/v1/nothing-here", "", nil); resp.Code != model.ResponseErrorNotFound {
		t.Errorf("unknown route: %+v", resp)
	}
	s.do(t, "POST", "/v1/registration/otp", "", map[string]string{"nationalIdNumber": testNationalID})
	found := false
	for _, action := range s.mem.Actions() {
		if action.Msg == "anonymous requested an OTP" && action.Subject == "registration otp" {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %+v", s.mem.Actions())
	}
}

func TestUpdatePassword(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t)

	wrong := map[string]string{"oldPassword": "not-my-password", "newPassword": "password2"}
	if resp := s.do(t, "POST", "/v1/update-password", token, wrong); resp.Code != model.ResponseErrorWrongPassword {
		t.Errorf("wrong old password: %+v", resp)
	}
	short := map[string]string{"oldPassword": testPassword, "newPassword": "short"}
	if resp := s.do(t, "POST", "/v1/update-password", token, short); resp.Code != model.ResponseErrorValidation {
		t.Errorf("short password: %+v", resp)
	}
	change := map[string]string{"oldPassword": testPassword, "newPassword": "password2"}
	if resp := s.do(t, "POST", "/v1/update-password", token, change); resp.Code != 0 {
		t.Fatalf("update password: %+v", resp)
	}
	if resp := s.do(t, "POST", "/v1/login", "", map[string]string{"username": testNationalID, "password": testPassword}); resp.Code != model.ResponseErrorWrongPassword {
		t.Errorf("login with old password: %+v", resp)
	}
	s.login(t, testNationalID, "password2")
	if resp := s.do(t, "POST", "/v1/update-password", "", change); resp.Code != model.ResponseErrorNotLoggedIn {
		t.Errorf("anonymous update: %+v", resp)
	}
}

func TestAvailableSectorsAndSchools(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t)

	resp := s.do(t, "GET", "/v1/candidates/c1/available-sectors", token, nil)
	var sectors []model.SectorDo
	if err := json.Unmarshal(resp.Data, &sectors); err != nil || len(sectors) != 1 || sectors[0].ID != "5" {
		t.Errorf("available sectors: %+v", resp)
	}
	resp = s.do(t, "GET", "/v1/candidates/c1/available-schools", token, nil)
	var schools []model.SchoolDo
	if err := json.Unmarshal(resp.Data, &schools); err != nil || len(schools) != 0 {
		t.Errorf("schools before qualification: %+v", resp)
	}

	c, _ := s.mem.GetCandidate(nil, "c1")
	c.QualifiedSectorID = "5"
	if err := s.mem.UpdateCandidate(nil, c); err != nil {
		t.Fatal(err)
	}
	resp = s.do(t, "GET", "/v1/candidates/c1/available-schools", token, nil)
	if err := json.Unmarshal(resp.Data, &schools); err != nil || len(schools) != 1 || schools[0].ID != "sch1" {
		t.Errorf("available schools: %+v", resp)
	}
	if resp := s.do(t, "GET", "/v1/candidates/c2/available-sectors", token, nil); resp.Code != model.ResponseErrorForbidden {
		t.Errorf("foreign candidate: %+v", resp)
	}
}

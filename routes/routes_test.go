package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"relief-claims-api/controllers"
	"relief-claims-api/models"
	"relief-claims-api/repository"
	"relief-claims-api/services"
	"relief-claims-api/storage"
)

const jwtSecret = "routes-test-secret"

type RoutesTestSuite struct {
	suite.Suite
	router *gin.Engine
	tokens map[models.Role]string
}

func TestRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}

func (s *RoutesTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	blobs, err := storage.NewLocalStore(s.T().TempDir())
	s.Require().NoError(err)

	retry := services.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond}
	docs := services.NewDocumentStore(store, blobs, 1<<20, retry, logger)
	engine := services.NewWorkflowEngine(store, docs, services.EngineOptions{Retry: retry, Logger: logger})
	officers := services.NewOfficerService(store.Officers(), jwtSecret, time.Hour)

	s.router = gin.New()
	SetupRoutes(s.router, Dependencies{
		Auth:      controllers.NewAuthController(officers),
		Claims:    controllers.NewClaimController(engine),
		Documents: controllers.NewDocumentController(engine, 1<<20),
		JWTSecret: jwtSecret,
		Officers:  store.Officers(),
	})

	s.tokens = map[models.Role]string{}
	for _, role := range []models.Role{
		models.RoleTehsildar, models.RoleSDM, models.RoleRahatOperator,
		models.RoleOIC, models.RoleADG, models.RoleCollector,
	} {
		email := fmt.Sprintf("%s@raipur.gov.in", role)
		_, err := officers.Register(context.Background(), models.Officer{Email: email, Role: role}, "password-"+string(role))
		s.Require().NoError(err)

		w := s.do(http.MethodPost, "/api/v1/login", "", map[string]string{"email": email, "password": "password-" + string(role)})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var res struct{ Token string }
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.tokens[role] = res.Token
	}
}

func (s *RoutesTestSuite) do(method, path string, role models.Role, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[role])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type claimEnvelope struct {
	Claim struct {
		ClaimID     string             `json:"claim_id"`
		Status      models.ClaimStatus `json:"status"`
		CurrentRole models.Role        `json:"current_role"`
		Version     int                `json:"version"`
	} `json:"claim"`
}

func (s *RoutesTestSuite) decodeClaim(w *httptest.ResponseRecorder) claimEnvelope {
	var env claimEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *RoutesTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct{ Code string }
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func (s *RoutesTestSuite) createClaim() string {
	w := s.do(http.MethodPost, "/api/v1/claims", models.RoleTehsildar, map[string]any{
		"applicant_name":         "Sita Devi",
		"age":                    57,
		"sex":                    "female",
		"date_of_birth":          "1967-05-02",
		"date_of_death":          "2024-08-19",
		"location":               "Arang",
		"residential_address":    "Ward 7, Arang",
		"family_details":         "Husband Mohan (60)",
		"patwari_checked":        true,
		"thana_incharge_checked": true,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decodeClaim(w).Claim.ClaimID
}

func (s *RoutesTestSuite) TestHealthIsPublic() {
	w := s.do(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RoutesTestSuite) TestClaimsRequireToken() {
	w := s.do(http.MethodGet, "/api/v1/claims", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RoutesTestSuite) TestLoginWrongPassword() {
	w := s.do(http.MethodPost, "/api/v1/login", "", map[string]string{"email": "sdm@raipur.gov.in", "password": "nope"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RoutesTestSuite) TestCreateClaimValidation() {
	w := s.do(http.MethodPost, "/api/v1/claims", models.RoleTehsildar, map[string]any{
		"applicant_name": "Sita Devi", "patwari_checked": false,
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation", s.errorCode(w))

	w = s.do(http.MethodPost, "/api/v1/claims", models.RoleSDM, map[string]any{})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RoutesTestSuite) TestWorkflowOverHTTP() {
	id := s.createClaim()

	w := s.do(http.MethodPost, "/api/v1/claims/"+id+"/submit", models.RoleTehsildar, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(models.RoleSDM, s.decodeClaim(w).Claim.CurrentRole)

	w = s.do(http.MethodPost, "/api/v1/claims/"+id+"/actions", models.RoleOIC, map[string]any{"action": "approve"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("forbidden", s.errorCode(w))

	w = s.do(http.MethodPost, "/api/v1/claims/"+id+"/review", models.RoleSDM, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.StatusUnderReview, s.decodeClaim(w).Claim.Status)

	for _, role := range []models.Role{models.RoleSDM, models.RoleRahatOperator, models.RoleOIC, models.RoleADG, models.RoleCollector, models.RoleTehsildar} {
		w = s.do(http.MethodPost, "/api/v1/claims/"+id+"/actions", role, map[string]any{"action": "approve"})
		s.Require().Equal(http.StatusOK, w.Code, "%s: %s", role, w.Body.String())
	}
	s.Equal(models.StatusPaymentApproved, s.decodeClaim(w).Claim.Status)

	w = s.do(http.MethodPost, "/api/v1/claims/"+id+"/actions", models.RoleTehsildar, map[string]any{"action": "reject"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("invalid_state", s.errorCode(w))

	w = s.do(http.MethodGet, "/api/v1/claims/"+id+"/approvals", models.RoleCollector, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var approvals struct{ Approvals []models.Approval }
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &approvals))
	s.Len(approvals.Approvals, 6)

	w = s.do(http.MethodGet, "/api/v1/claims/"+id+"/history", models.RoleCollector, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RoutesTestSuite) TestStaleVersionIsConflict() {
	id := s.createClaim()
	w := s.do(http.MethodPost, "/api/v1/claims/"+id+"/submit", models.RoleTehsildar, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	version := s.decodeClaim(w).Claim.Version

	w = s.do(http.MethodPost, "/api/v1/claims/"+id+"/actions", models.RoleSDM, map[string]any{"action": "approve", "expected_version": version - 1})
	s.Equal(http.StatusConflict, w.Code)
	var body struct {
		Code      string
		Retryable bool
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("conflict", body.Code)
	s.True(body.Retryable)
}

func (s *RoutesTestSuite) TestUnknownClaim() {
	w := s.do(http.MethodGet, "/api/v1/claims/missing", models.RoleSDM, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", s.errorCode(w))
}

func (s *RoutesTestSuite) TestUploadAndDownload() {
	id := s.createClaim()

	upload := func(name, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		s.Require().NoError(mw.WriteField("category", "finding-report"))
		part, err := mw.CreateFormFile("file", name)
		s.Require().NoError(err)
		_, _ = part.Write([]byte(content))
		s.Require().NoError(mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/claims/"+id+"/documents", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.tokens[models.RoleTehsildar])
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	s.Require().Equal(http.StatusCreated, upload("finding-v1.pdf", "one").Code)
	w := upload("finding-v2.pdf", "two")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct{ Document models.Document }
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(http.MethodGet, "/api/v1/claims/"+id+"/documents", models.RoleTehsildar, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var listed struct{ Documents []models.Document }
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listed))
	s.Require().Len(listed.Documents, 1)
	s.Equal("finding-v2.pdf", listed.Documents[0].FileName)

	w = s.do(http.MethodGet, "/api/v1/claims/"+id+"/documents/"+created.Document.DocumentID+"/download", models.RoleTehsildar, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("two", w.Body.String())
	s.Contains(w.Header().Get("Content-Disposition"), "finding-v2.pdf")

	bad := upload("virus.exe", "x")
	s.Equal(http.StatusBadRequest, bad.Code)
}

func (s *RoutesTestSuite) TestProfileRoundTrip() {
	w := s.do(http.MethodPut, "/api/v1/profile", models.RoleADG, map[string]string{
		"display_name": "R. Sahu", "phone": "0771205555", "department": "Revenue", "designation": "ADG",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/profile", models.RoleADG, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var res struct{ Officer models.Officer }
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.True(res.Officer.ProfileComplete)
	s.Equal("R. Sahu", res.Officer.DisplayName)
}

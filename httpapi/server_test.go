package httpapi

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/auth"
	"tmf.evalgo.org/db"
	httpcommon "tmf.evalgo.org/http"
	"tmf.evalgo.org/engine"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/security"
	"tmf.evalgo.org/storage"
)

type testServer struct {
	echo   http.Handler
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	approverKey, err := security.GenerateKeyPair()
	require.NoError(t, err)
	approverPub, err := security.EncodePublicKeyPEM(&approverKey.PublicKey)
	require.NoError(t, err)

	principals := []model.Principal{
		{ID: "u1", Username: "author", Role: model.RoleContributor},
		{ID: "u3", Username: "reviewer", Role: model.RoleReviewer},
		{ID: "u4", Username: "approver", Role: model.RoleApprover, PublicKeyPEM: approverPub, PrivateKeyHandle: "u4-key"},
	}

	identity := auth.NewMemoryIdentityDirectory(principals)
	identity.SeedPrivateKey("u4-key", encodePrivateKeyPEM(t, approverKey))

	eng := engine.New(storage.NewMemoryDocStore(), storage.NewMemoryBlobStore(), identity, db.NewMemorySequenceAllocator())
	tokens := auth.NewTokenService("test-secret", time.Hour)

	srvCfg := httpcommon.DefaultServerConfig()
	srvCfg.RateLimit = 0
	return testServer{echo: NewServer(eng, tokens, srvCfg), tokens: tokens}
}

func encodePrivateKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(key)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	return string(pem.EncodeToMemory(block))
}

func (s testServer) tokenFor(t *testing.T, principal model.Principal) string {
	t.Helper()
	tok, err := s.tokens.IssueToken(principal)
	require.NoError(t, err)
	return tok
}

func (s testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echoHeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echoHeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

const (
	echoHeaderContentType   = "Content-Type"
	echoHeaderAuthorization = "Authorization"
)

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// TestHTTPAPI_FullApprovalFlow exercises the external interface
// end-to-end: create -> submit_review_direct -> review_ballot ->
// submit_approval -> final_approval -> verify_signature, all over
// HTTP request/response bodies rather than direct engine calls.
func TestHTTPAPI_FullApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	authorTok := s.tokenFor(t, model.Principal{ID: "u1"})
	reviewerTok := s.tokenFor(t, model.Principal{ID: "u3"})
	approverTok := s.tokenFor(t, model.Principal{ID: "u4"})

	body, contentType := multipartUpload(t, map[string]string{"study_id": "STUDY-1"}, "protocol.pdf", "hello world")
	rec := s.do(t, http.MethodPost, "/v1/documents", authorTok, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, model.StatusDraft, doc.Status)

	reviewBody, _ := json.Marshal(map[string]any{"reviewer_ids": []string{"u3"}})
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/documents/%s/submit-review-direct", doc.DocID), authorTok, bytes.NewReader(reviewBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, model.StatusInReview, doc.Status)

	ballotBody, _ := json.Marshal(map[string]any{"decision": model.DecisionApproved})
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/documents/%s/review-ballot", doc.DocID), reviewerTok, bytes.NewReader(ballotBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, model.StatusReviewComplete, doc.Status)

	approvalBody, _ := json.Marshal(map[string]any{"approver_id": "u4"})
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/documents/%s/submit-approval", doc.DocID), authorTok, bytes.NewReader(approvalBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, model.StatusPendingApproval, doc.Status)

	finalBody, _ := json.Marshal(map[string]any{"approved": true, "comment": "looks good"})
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/v1/documents/%s/final-approval", doc.DocID), approverTok, bytes.NewReader(finalBody), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, model.StatusApproved, doc.Status)
	require.NotNil(t, doc.Signature)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/documents/%s/verify-signature", doc.DocID), approverTok, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verify verifySignatureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	require.True(t, verify.Valid)
}

// TestHTTPAPI_MissingBearerTokenRejected exercises AuthMiddleware's
// rejection path.
func TestHTTPAPI_MissingBearerTokenRejected(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/v1/documents", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestHTTPAPI_HealthCheckDoesNotRequireAuth confirms /healthz sits
// outside the authenticated /v1 group.
func TestHTTPAPI_HealthCheckDoesNotRequireAuth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

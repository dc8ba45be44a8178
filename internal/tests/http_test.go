package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/app"
	"fleetops/internal/domain"
	"fleetops/internal/handler"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, f *fixture) (*gin.Engine, string) {
	t.Helper()

	uploadDir := t.TempDir()

	router := app.NewRouter(app.RouterDeps{
		AssignmentHandler: handler.NewAssignmentHandler(f.assignmentService, handler.NewUploads(uploadDir)),
		CabHandler:        handler.NewCabHandler(f.cabService),
		ExpenseHandler:    handler.NewExpenseHandler(f.expenseService, f.aggregator),
		AdminHandler:      handler.NewAdminHandler(f.adminService, f.analyticsService),
		JWTSecret:         testSecret,
		Logger:            f.logger,
	})
	return router, uploadDir
}

func signToken(t *testing.T, a domain.Actor) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": a.ID,
		"role":    string(a.Role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, router http.Handler, method, path string, a *domain.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a != nil {
		req.Header.Set("Authorization", "Bearer "+signToken(t, *a))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_AssignmentFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	f.addDriver("d2", "a1")
	f.addCab("C1", "a1")
	router, uploadDir := newTestRouter(t, f)

	admin := adminActor("a1")
	driver := driverActor("d1")

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/assignments", &admin, map[string]string{"driverId": "d1", "cabNumber": "C1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Assignment domain.Assignment `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "a1", created.Assignment.AssignedBy)

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/assignments", &admin, map[string]string{"driverId": "d2", "cabNumber": "C1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already assigned")

	// Multipart trip update with an attachment.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("fuel", `{"amount": 500, "station": "X"}`))
	part, err := mw.CreateFormFile("receiptImage", "receipt.JPG")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/v1/driver/trip", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, driver))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated struct {
		Assignment domain.Assignment `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	fuel := updated.Assignment.TripDetails.Fuel
	require.NotNil(t, fuel)
	assert.Equal(t, []float64{500}, fuel.Amount)
	assert.Equal(t, "X", fuel.Attributes["station"])
	require.Len(t, fuel.ReceiptImage, 1)
	assert.True(t, strings.HasSuffix(fuel.ReceiptImage[0], ".jpg"))

	var wire struct {
		Assignment struct {
			TripDetails struct {
				Fuel map[string]any `json:"fuel"`
			} `json:"tripDetails"`
		} `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wire))
	assert.Equal(t, "X", wire.Assignment.TripDetails.Fuel["station"])
	assert.NotContains(t, wire.Assignment.TripDetails.Fuel, "attributes")

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	rec = doJSON(t, router, http.MethodGet, "/v1/driver/assignments", &driver, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/driver/assignments/"+created.Assignment.ID+"/complete", &driver, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/v1/admin/assignments/"+created.Assignment.ID, &admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTP_TripUpdateRejected_RemovesAttachments(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addDriver("d1", "a1")
	router, uploadDir := newTestRouter(t, f)
	driver := driverActor("d1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("fuel", `{"amount": 500}`))
	for _, field := range []string{"receiptImage", "transactionImage"} {
		part, err := mw.CreateFormFile(field, "scan.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/v1/driver/trip", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+signToken(t, driver))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHTTP_AuthAndRoles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAdmin("sub-1", "East")
	router, _ := newTestRouter(t, f)

	driver := driverActor("d1")
	admin := adminActor("a1")
	root := superAdminActor("root")

	testCases := []struct {
		name   string
		method string
		path   string
		actor  *domain.Actor
		want   int
	}{
		{name: "no token", method: http.MethodGet, path: "/v1/admin/assignments", want: http.StatusUnauthorized},
		{name: "driver on admin route", method: http.MethodGet, path: "/v1/admin/assignments", actor: &driver, want: http.StatusForbidden},
		{name: "admin on driver route", method: http.MethodGet, path: "/v1/driver/assignments", actor: &admin, want: http.StatusForbidden},
		{name: "admin deleting sub-admin", method: http.MethodDelete, path: "/v1/admin/subadmins/sub-1", actor: &admin, want: http.StatusForbidden},
		{name: "driver without assignment", method: http.MethodGet, path: "/v1/driver/assignments", actor: &driver, want: http.StatusNotFound},
		{name: "admin empty listing", method: http.MethodGet, path: "/v1/admin/assignments", actor: &admin, want: http.StatusOK},
		{name: "super-admin deleting sub-admin", method: http.MethodDelete, path: "/v1/admin/subadmins/sub-1", actor: &root, want: http.StatusOK},
		{name: "health is public", method: http.MethodGet, path: "/health", want: http.StatusOK},
	}

	for _, tc := range testCases {
		rec := doJSON(t, router, tc.method, tc.path, tc.actor, nil)
		assert.Equal(t, tc.want, rec.Code, "%s: %s", tc.name, rec.Body.String())
	}
}

func TestHTTP_BadTokenRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	router, _ := newTestRouter(t, f)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "a1", "role": "admin"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/assignments", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_EmptyAggregationsAreArrays(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	router, _ := newTestRouter(t, f)
	admin := adminActor("a1")

	for _, path := range []string{"/v1/admin/expenses/cabs", "/v1/admin/expenses/subadmins", "/v1/admin/analytics"} {
		rec := doJSON(t, router, http.MethodGet, path, &admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

func TestHTTP_CabReportDownload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cab := f.addCab("C1", "a1")
	f.addTrip("d1", cab.ID, "a1", domain.AssignmentStatusCompleted, trip([]float64{10}, nil, nil, nil))
	router, _ := newTestRouter(t, f)
	admin := adminActor("a1")

	rec := doJSON(t, router, http.MethodGet, "/v1/admin/expenses/cabs/report.xlsx", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, rec.Body.Bytes())
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"relay-policyd/pkg/nip98"
	"relay-policyd/services/acl"
	"relay-policyd/services/admin"
	"relay-policyd/services/authz"
	"relay-policyd/services/relay"
	"relay-policyd/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

type fakeEnqueuer struct{}

func (fakeEnqueuer) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: "fake", Type: task.Type()}, nil
}

func newRouter(t *testing.T) (http.Handler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := testutil.NewTestDB(t, relay.Models()...)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	relaySvc := relay.NewService(relay.ServiceParams{DB: db})
	authzSvc := authz.NewService(authz.ServiceParams{DB: db, Relays: relaySvc})
	aclSvc := acl.NewService(acl.ServiceParams{
		DB:     db,
		Node:   node,
		Relays: relaySvc,
		Asynq:  fakeEnqueuer{},
	})
	adminSvc := admin.NewService(admin.ServiceParams{
		Verifier: nip98.NewVerifier(),
		Relays:   relaySvc,
		Authz:    authzSvc,
		ACL:      aclSvc,
	})

	return ProvideRouter(HandlerParams{Admin: adminSvc, Authz: authzSvc}), db, node
}

func TestHealthz(t *testing.T) {
	router, _, _ := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthorizationEndpoint(t *testing.T) {
	router, db, node := newRouter(t)
	require.NoError(t, db.Create(&relay.Relay{
		ID:                   node.Generate().String(),
		Name:                 "open",
		Domain:               "relay.test",
		DefaultMessagePolicy: true,
	}).Error)

	pubkey := strings.Repeat("a1", 32)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/authorization?hostname=open.relay.test&pubkey="+pubkey, nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"authorized"}`, w.Body.String())
}

func TestAuthorizationEndpointUnknownRelay(t *testing.T) {
	router, _, _ := newRouter(t)
	pubkey := strings.Repeat("a1", 32)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/authorization?hostname=ghost.relay.test&pubkey="+pubkey, nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"not_found"}`, w.Body.String())
}

func TestAuthorizationEndpointValidation(t *testing.T) {
	router, _, _ := newRouter(t)

	cases := []string{
		"/api/authorization",
		"/api/authorization?hostname=x.relay.test",
		"/api/authorization?hostname=x.relay.test&pubkey=tooshort",
	}
	for _, path := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusBadRequest, w.Code, path)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "validation_failed", body.Error.Code, path)
	}
}

func TestACLEndpointRejectsBadBody(t *testing.T) {
	router, _, _ := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sconfig/relays/1/acl",
		strings.NewReader("not json"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestACLEndpointUnauthenticated(t *testing.T) {
	router, _, _ := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sconfig/relays/1/acl",
		strings.NewReader(`{"command":"supportedmethods"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "unauthorized", body.Error.Code)
}

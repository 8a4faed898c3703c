package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/ipam-rir/rir-manager/internal/api/v1"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/operations"
	opmocks "github.com/ipam-rir/rir-manager/internal/operations/mocks"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store/memory"
	"github.com/ipam-rir/rir-manager/internal/trigger"
	triggermocks "github.com/ipam-rir/rir-manager/internal/trigger/mocks"
)

type fixture struct {
	svc    *opmocks.MockService
	engine *triggermocks.MockEngine
	store  *memory.Store
	queue  *jobs.MemoryQueue
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		svc:    opmocks.NewMockService(ctrl),
		engine: triggermocks.NewMockEngine(ctrl),
		store:  memory.New(),
		queue:  jobs.NewMemoryQueue(4),
	}
	f.router = v1.Router(f.svc, f.engine, f.store, f.queue)
	return f
}

func (f *fixture) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestReassignNetwork(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.svc.EXPECT().Reassign(gomock.Any(), int64(5), operations.Actor{UserID: 42}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ operations.Actor, req operations.ReassignRequest) (*operations.Outcome, error) {
			assert.Equal(t, operations.ModeSimple, req.Mode)
			assert.Equal(t, "10.0.1.0", req.StartAddress)
			assert.Equal(t, "10.0.1.255", req.EndAddress)
			assert.Equal(t, "Example Co", req.CustomerName)
			assert.Equal(t, "US", req.Country)
			return &operations.Outcome{
				Status:  operations.OutcomeSuccess,
				Message: "Reassignment submitted. Ticket: TKT-1",
				Ticket:  &models.Ticket{ID: 1, Number: "TKT-1", Status: models.TicketPendingReview},
			}, nil
		})

	rr := f.do(t, http.MethodPost, "/networks/5/reassign", "42", `{
		"reassignment_type": "simple",
		"start_address": "10.0.1.0",
		"end_address": "10.0.1.255",
		"customer_name": "Example Co",
		"street_address": "1 Main St",
		"city": "Springfield",
		"country": "US"
	}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Reassignment submitted. Ticket: TKT-1", out["message"])
	ticket, ok := out["ticket"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TKT-1", ticket["number"])
}

func TestOperationErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		outcome    *operations.Outcome
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "validation",
			err:        &operations.ValidationError{Field: "start_address", Message: "is required"},
			wantStatus: http.StatusBadRequest,
			wantError:  "start_address: is required",
		},
		{
			name:       "no credential",
			err:        operations.ErrNoCredential,
			wantStatus: http.StatusForbidden,
			wantError:  operations.ErrNoCredential.Error(),
		},
		{
			name:       "unknown network",
			err:        fmt.Errorf("%w: %d", operations.ErrNetworkNotFound, 5),
			wantStatus: http.StatusNotFound,
			wantError:  "network not found: 5",
		},
		{
			name:       "registry rejected",
			outcome:    &operations.Outcome{Status: operations.OutcomeError, Message: "Failed to remove network NET-1 from registry"},
			err:        operations.ErrRegistryRejected,
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to remove network NET-1 from registry",
		},
		{
			name:       "customer failed",
			outcome:    &operations.Outcome{Status: operations.OutcomeError, Message: "Failed to create customer"},
			err:        operations.ErrCustomerFailed,
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to create customer",
		},
		{
			name:       "internal",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.svc.EXPECT().Remove(gomock.Any(), int64(5), operations.Actor{UserID: 7}).Return(tt.outcome, tt.err)

			rr := f.do(t, http.MethodPost, "/networks/5/remove", "7", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rr))
		})
	}
}

func TestNetworkRoutes(t *testing.T) {
	t.Parallel()

	ok := &operations.Outcome{Status: operations.OutcomeSuccess, Message: "done"}
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		expect func(m *opmocks.MockService)
	}{
		{
			name:   "reallocate",
			method: http.MethodPost,
			path:   "/networks/8/reallocate",
			body:   `{"org_handle":"EXAMPLE-1","start_address":"10.0.2.0","end_address":"10.0.2.255"}`,
			expect: func(m *opmocks.MockService) {
				m.EXPECT().Reallocate(gomock.Any(), int64(8), operations.Actor{UserID: 3}, operations.ReallocateRequest{
					OrgHandle:    "EXAMPLE-1",
					StartAddress: "10.0.2.0",
					EndAddress:   "10.0.2.255",
				}).Return(ok, nil)
			},
		},
		{
			name:   "delete",
			method: http.MethodPost,
			path:   "/networks/8/delete",
			expect: func(m *opmocks.MockService) {
				m.EXPECT().Delete(gomock.Any(), int64(8), operations.Actor{UserID: 3}).Return(ok, nil)
			},
		},
		{
			name:   "update",
			method: http.MethodPatch,
			path:   "/networks/8",
			body:   `{"name":"RENAMED-NET"}`,
			expect: func(m *opmocks.MockService) {
				m.EXPECT().Update(gomock.Any(), int64(8), operations.Actor{UserID: 3}, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ int64, _ operations.Actor, p registry.NetworkPatch) (*operations.Outcome, error) {
						if assert.NotNil(t, p.Name) {
							assert.Equal(t, "RENAMED-NET", *p.Name)
						}
						return ok, nil
					})
			},
		},
		{
			name:   "refresh ticket",
			method: http.MethodPost,
			path:   "/tickets/11/refresh",
			expect: func(m *opmocks.MockService) {
				m.EXPECT().RefreshTicket(gomock.Any(), int64(11), operations.Actor{UserID: 3}).Return(ok, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			tt.expect(f.svc)

			rr := f.do(t, tt.method, tt.path, "3", tt.body)
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		user string
		body string
	}{
		{name: "non numeric network", path: "/networks/abc/remove", user: "1"},
		{name: "zero network", path: "/networks/0/remove", user: "1"},
		{name: "bad user header", path: "/networks/1/remove", user: "alice"},
		{name: "malformed body", path: "/networks/1/reassign", user: "1", body: `{"start_address":`},
		{name: "unknown field", path: "/networks/1/reallocate", user: "1", body: `{"org":"X"}`},
		{name: "bad ticket id", path: "/tickets/x/refresh", user: "1"},
		{name: "hook without prefix id", path: "/hooks/prefix-saved", body: `{"new":{"prefix":"10.0.0.0/24","status":"active"}}`},
		{name: "delete hook without id", path: "/hooks/prefix-deleted", body: `{"prefix":"10.0.0.0/24"}`},
		{name: "unknown scope", path: "/configs/1/sync", user: "1", body: `{"scopes":["routes"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			rr := f.do(t, http.MethodPost, tt.path, tt.user, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, decodeError(t, rr))
		})
	}
}

func TestSyncConfig(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, f *fixture) (*models.RegistryConfig, *models.UserCredential) {
		t.Helper()
		ctx := context.Background()
		cfg := &models.RegistryConfig{RIR: "arin", Name: "arin-prod", OrgHandle: "EXAMPLE-1", IsActive: true}
		require.NoError(t, f.store.CreateConfig(ctx, cfg))
		cred := &models.UserCredential{UserID: 42, ConfigID: cfg.ID, APIKey: "API-KEY"}
		require.NoError(t, f.store.CreateCredential(ctx, cred))
		return cfg, cred
	}

	t.Run("queues a scoped job", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		cfg, cred := setup(t, f)

		rr := f.do(t, http.MethodPost, fmt.Sprintf("/configs/%d/sync", cfg.ID), "42", `{"scopes":["networks"]}`)
		require.Equal(t, http.StatusAccepted, rr.Code)

		var resp v1.SyncResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, cfg.ID, resp.ConfigID)

		require.Equal(t, 1, f.queue.Len())
		job, err := f.queue.Dequeue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, jobs.TypeSyncConfig, job.Type)
		assert.Equal(t, resp.JobID, job.ID.String())

		var params jobs.SyncConfigParams
		require.NoError(t, job.Decode(&params))
		assert.Equal(t, jobs.SyncConfigParams{ConfigID: cfg.ID, CredentialID: cred.ID, Scopes: []string{"networks"}}, params)
	})

	t.Run("empty body syncs every scope", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		cfg, _ := setup(t, f)

		rr := f.do(t, http.MethodPost, fmt.Sprintf("/configs/%d/sync", cfg.ID), "42", "")
		require.Equal(t, http.StatusAccepted, rr.Code)

		job, err := f.queue.Dequeue(context.Background())
		require.NoError(t, err)
		var params jobs.SyncConfigParams
		require.NoError(t, job.Decode(&params))
		assert.Equal(t, []string{"organizations", "contacts", "networks"}, params.Scopes)
	})

	t.Run("user without credential", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		cfg, _ := setup(t, f)

		rr := f.do(t, http.MethodPost, fmt.Sprintf("/configs/%d/sync", cfg.ID), "43", "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, 0, f.queue.Len())
	})

	t.Run("unknown config", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rr := f.do(t, http.MethodPost, "/configs/99/sync", "42", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "registry config not found", decodeError(t, rr))
	})

	t.Run("queue closed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		cfg, _ := setup(t, f)
		require.NoError(t, f.queue.Close())

		rr := f.do(t, http.MethodPost, fmt.Sprintf("/configs/%d/sync", cfg.ID), "42", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestPrefixHooks(t *testing.T) {
	t.Parallel()

	t.Run("saved", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		want := ipam.Prefix{ID: 20, Prefix: netip.MustParsePrefix("192.0.2.0/28"), Status: ipam.PrefixActive}
		f.engine.EXPECT().OnPrefixSaved(gomock.Any(), gomock.Nil(), want).
			Return(trigger.Decision{Action: trigger.ActionReassign, Reason: "queued"})

		rr := f.do(t, http.MethodPost, "/hooks/prefix-saved", "",
			`{"new":{"id":20,"prefix":"192.0.2.0/28","status":"active"}}`)

		require.Equal(t, http.StatusAccepted, rr.Code)
		var decision trigger.Decision
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
		assert.Equal(t, trigger.ActionReassign, decision.Action)
	})

	t.Run("saved with previous state", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.engine.EXPECT().OnPrefixSaved(gomock.Any(), gomock.Not(gomock.Nil()), gomock.Any()).
			DoAndReturn(func(_ context.Context, old *ipam.Prefix, updated ipam.Prefix) trigger.Decision {
				assert.Equal(t, ipam.PrefixActive, old.Status)
				assert.Equal(t, ipam.PrefixDeprecated, updated.Status)
				return trigger.Decision{Action: trigger.ActionRemove}
			})

		rr := f.do(t, http.MethodPost, "/hooks/prefix-saved", "", `{
			"old":{"id":20,"prefix":"192.0.2.0/28","status":"active"},
			"new":{"id":20,"prefix":"192.0.2.0/28","status":"deprecated"}
		}`)
		assert.Equal(t, http.StatusAccepted, rr.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.engine.EXPECT().OnPrefixDeleted(gomock.Any(), gomock.Any()).
			Return(trigger.Decision{Action: trigger.ActionNone, Reason: "prefix 20 has no linked network"})

		rr := f.do(t, http.MethodPost, "/hooks/prefix-deleted", "", `{"id":20,"prefix":"192.0.2.0/28","status":"active"}`)
		require.Equal(t, http.StatusAccepted, rr.Code)
		var decision trigger.Decision
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
		assert.Equal(t, trigger.ActionNone, decision.Action)
		assert.Equal(t, "prefix 20 has no linked network", decision.Reason)
	})
}

func TestUpdateNetworkAutoReassign(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, f *fixture) *models.Network {
		t.Helper()
		ctx := context.Background()
		cfg := &models.RegistryConfig{RIR: "arin", Name: "arin-prod", OrgHandle: "EXAMPLE-1", IsActive: true}
		require.NoError(t, f.store.CreateConfig(ctx, cfg))
		require.NoError(t, f.store.CreateCredential(ctx, &models.UserCredential{UserID: 42, ConfigID: cfg.ID, APIKey: "API-KEY"}))
		n := &models.Network{ConfigID: cfg.ID, Handle: "NET-10-0-0-0-1", Name: "EXAMPLE-NET", StartAddress: "10.0.0.0", EndAddress: "10.0.255.255"}
		_, err := f.store.UpsertNetwork(ctx, n)
		require.NoError(t, err)
		return n
	}

	t.Run("enables without a registry call", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		n := setup(t, f)

		rr := f.do(t, http.MethodPatch, fmt.Sprintf("/networks/%d", n.ID), "42", `{"auto_reassign":true}`)
		require.Equal(t, http.StatusOK, rr.Code)

		var out operations.Outcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, operations.OutcomeSuccess, out.Status)
		require.NotNil(t, out.Network)
		assert.True(t, out.Network.AutoReassign)

		stored, err := f.store.GetNetwork(context.Background(), n.ID)
		require.NoError(t, err)
		assert.True(t, stored.AutoReassign)
	})

	t.Run("disables and forwards the rename", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		n := setup(t, f)
		require.NoError(t, f.store.SetAutoReassign(context.Background(), n.ID, true))

		f.svc.EXPECT().Update(gomock.Any(), n.ID, operations.Actor{UserID: 42}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, _ operations.Actor, p registry.NetworkPatch) (*operations.Outcome, error) {
				if assert.NotNil(t, p.Name) {
					assert.Equal(t, "RENAMED-NET", *p.Name)
				}
				return &operations.Outcome{Status: operations.OutcomeSuccess}, nil
			})

		rr := f.do(t, http.MethodPatch, fmt.Sprintf("/networks/%d", n.ID), "42", `{"name":"RENAMED-NET","auto_reassign":false}`)
		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := f.store.GetNetwork(context.Background(), n.ID)
		require.NoError(t, err)
		assert.False(t, stored.AutoReassign)
	})

	t.Run("caller without credential is forbidden", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		n := setup(t, f)

		rr := f.do(t, http.MethodPatch, fmt.Sprintf("/networks/%d", n.ID), "7", `{"auto_reassign":true}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		stored, err := f.store.GetNetwork(context.Background(), n.ID)
		require.NoError(t, err)
		assert.False(t, stored.AutoReassign)
	})

	t.Run("unknown network", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rr := f.do(t, http.MethodPatch, "/networks/999", "42", `{"auto_reassign":true}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

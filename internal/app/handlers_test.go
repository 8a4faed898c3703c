package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/operations"
	opmocks "github.com/ipam-rir/rir-manager/internal/operations/mocks"
	"github.com/ipam-rir/rir-manager/internal/store/memory"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
	syncmocks "github.com/ipam-rir/rir-manager/internal/sync/mocks"
)

type handlerFixture struct {
	store  *memory.Store
	engine *syncmocks.MockEngine
	ops    *opmocks.MockService
	worker *jobs.Worker
	config *models.RegistryConfig
	cred   *models.UserCredential
	other  *models.UserCredential
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	f := &handlerFixture{
		store:  memory.New(),
		engine: syncmocks.NewMockEngine(ctrl),
		ops:    opmocks.NewMockService(ctrl),
		config: &models.RegistryConfig{RIR: "ARIN", Name: "arin", OrgHandle: "EXMPL", IsActive: true},
	}
	require.NoError(t, f.store.CreateConfig(ctx, f.config))
	f.cred = &models.UserCredential{UserID: 1, ConfigID: f.config.ID, APIKey: "k"}
	require.NoError(t, f.store.CreateCredential(ctx, f.cred))

	otherConfig := &models.RegistryConfig{RIR: "ARIN", Name: "other", OrgHandle: "OTHER", IsActive: true}
	require.NoError(t, f.store.CreateConfig(ctx, otherConfig))
	f.other = &models.UserCredential{UserID: 1, ConfigID: otherConfig.ID, APIKey: "k2"}
	require.NoError(t, f.store.CreateCredential(ctx, f.other))

	f.worker = jobs.NewWorker(jobs.NewMemoryQueue(1))
	newJobHandlers(f.store, f.engine, f.ops).register(f.worker)
	return f
}

func mustJob(t *testing.T, typ jobs.Type, params any) jobs.Job {
	t.Helper()
	job, err := jobs.New(typ, params)
	require.NoError(t, err)
	return job
}

func TestSyncConfigHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("runs scoped sync as the credential", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		f.engine.EXPECT().Sync(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req pkgsync.Request) (*pkgsync.Result, error) {
				assert.Equal(t, f.config.ID, req.Config.ID)
				assert.Equal(t, f.cred.ID, req.Credential.ID)
				assert.Equal(t, []pkgsync.Scope{pkgsync.ScopeContacts}, req.Scopes)
				return &pkgsync.Result{}, nil
			})

		err := f.worker.Process(ctx, mustJob(t, jobs.TypeSyncConfig, jobs.SyncConfigParams{
			ConfigID: f.config.ID, CredentialID: f.cred.ID, Scopes: []string{"contacts"},
		}))
		require.NoError(t, err)
	})

	t.Run("empty scopes sync everything", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		f.engine.EXPECT().Sync(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req pkgsync.Request) (*pkgsync.Result, error) {
				assert.Equal(t, pkgsync.AllScopes, req.Scopes)
				return &pkgsync.Result{}, nil
			})

		err := f.worker.Process(ctx, mustJob(t, jobs.TypeSyncConfig, jobs.SyncConfigParams{
			ConfigID: f.config.ID, CredentialID: f.cred.ID,
		}))
		require.NoError(t, err)
	})

	t.Run("engine failure fails the job", func(t *testing.T) {
		t.Parallel()
		f := newHandlerFixture(t)
		f.engine.EXPECT().Sync(gomock.Any(), gomock.Any()).Return(nil, errors.New("registry down"))

		err := f.worker.Process(ctx, mustJob(t, jobs.TypeSyncConfig, jobs.SyncConfigParams{
			ConfigID: f.config.ID, CredentialID: f.cred.ID,
		}))
		require.ErrorContains(t, err, "registry down")
	})

	tests := []struct {
		name    string
		params  func(*handlerFixture) jobs.SyncConfigParams
		wantErr string
	}{
		{
			name: "unknown config",
			params: func(f *handlerFixture) jobs.SyncConfigParams {
				return jobs.SyncConfigParams{ConfigID: 999, CredentialID: f.cred.ID}
			},
			wantErr: "failed to load registry config",
		},
		{
			name: "unknown credential",
			params: func(f *handlerFixture) jobs.SyncConfigParams {
				return jobs.SyncConfigParams{ConfigID: f.config.ID, CredentialID: 999}
			},
			wantErr: "failed to load credential",
		},
		{
			name: "credential of another config",
			params: func(f *handlerFixture) jobs.SyncConfigParams {
				return jobs.SyncConfigParams{ConfigID: f.config.ID, CredentialID: f.other.ID}
			},
			wantErr: "does not belong to config",
		},
		{
			name: "bad scope",
			params: func(f *handlerFixture) jobs.SyncConfigParams {
				return jobs.SyncConfigParams{ConfigID: f.config.ID, CredentialID: f.cred.ID, Scopes: []string{"tickets"}}
			},
			wantErr: "unknown sync scope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newHandlerFixture(t)
			err := f.worker.Process(ctx, mustJob(t, jobs.TypeSyncConfig, tt.params(f)))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSyncChildPrefixesHandler(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	f.engine.EXPECT().
		SyncChildPrefixes(gomock.Any(), gomock.Any(), gomock.Any(), []int64{4, 5}).
		DoAndReturn(func(_ context.Context, cfg *models.RegistryConfig, cred *models.UserCredential, _ []int64) (*pkgsync.Result, error) {
			assert.Equal(t, f.config.ID, cfg.ID)
			assert.Equal(t, f.cred.ID, cred.ID)
			return &pkgsync.Result{}, nil
		})

	err := f.worker.Process(context.Background(), mustJob(t, jobs.TypeSyncChildPrefixes, jobs.SyncChildPrefixesParams{
		ConfigID: f.config.ID, CredentialID: f.cred.ID, AggregateIDs: []int64{4, 5},
	}))
	require.NoError(t, err)
}

func TestOperationHandlers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     func(*testing.T) jobs.Job
		expect  func(*opmocks.MockService, error)
		fail    bool
		wantErr string
	}{
		{
			name: "reassign prefix",
			job: func(t *testing.T) jobs.Job {
				t.Helper()
				return mustJob(t, jobs.TypeReassignPrefix, jobs.ReassignPrefixParams{PrefixID: 9, CredentialID: 3})
			},
			expect: func(m *opmocks.MockService, err error) {
				m.EXPECT().AutoReassign(gomock.Any(), int64(9), int64(3)).
					Return(&operations.Outcome{Status: operations.OutcomeSuccess}, err)
			},
			wantErr: "failed to reassign prefix 9",
		},
		{
			name: "remove network",
			job: func(t *testing.T) jobs.Job {
				t.Helper()
				return mustJob(t, jobs.TypeRemoveNetwork, jobs.RemoveNetworkParams{NetworkID: 11, CredentialID: 3})
			},
			expect: func(m *opmocks.MockService, err error) {
				m.EXPECT().Remove(gomock.Any(), int64(11), operations.Actor{CredentialID: 3}).
					Return(&operations.Outcome{Status: operations.OutcomeSuccess}, err)
			},
			wantErr: "failed to remove network 11",
		},
		{
			name: "refresh ticket",
			job: func(t *testing.T) jobs.Job {
				t.Helper()
				return mustJob(t, jobs.TypeRefreshTicket, jobs.RefreshTicketParams{TicketID: 12, CredentialID: 3})
			},
			expect: func(m *opmocks.MockService, err error) {
				m.EXPECT().RefreshTicket(gomock.Any(), int64(12), operations.Actor{CredentialID: 3}).
					Return(&operations.Outcome{Status: operations.OutcomeSuccess}, err)
			},
			wantErr: "failed to refresh ticket 12",
		},
	}

	for _, tt := range tests {
		for _, fail := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				f := newHandlerFixture(t)
				var opErr error
				if fail {
					opErr = operations.ErrRegistryRejected
				}
				tt.expect(f.ops, opErr)

				err := f.worker.Process(context.Background(), tt.job(t))
				if !fail {
					require.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, operations.ErrRegistryRejected)
				assert.Contains(t, err.Error(), tt.wantErr)
			})
		}
	}
}

func TestOutcomeErrorSkipped(t *testing.T) {
	t.Parallel()
	err := outcomeError("reassign prefix", 1, &operations.Outcome{Status: operations.OutcomeSkipped, Message: "no parent"}, nil)
	require.NoError(t, err)
}

func TestUndecodableJob(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	job := jobs.Job{Type: jobs.TypeRemoveNetwork, Params: []byte(`{"network_id":"x"}`)}
	require.Error(t, f.worker.Process(context.Background(), job))
}

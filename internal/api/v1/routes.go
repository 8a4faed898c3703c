// Package v1 provides the write and hook endpoints of the rir-manager API.
package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ipam-rir/rir-manager/internal/api/common"
	"github.com/ipam-rir/rir-manager/internal/ipam"
	"github.com/ipam-rir/rir-manager/internal/jobs"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/operations"
	"github.com/ipam-rir/rir-manager/internal/registry"
	"github.com/ipam-rir/rir-manager/internal/store"
	pkgsync "github.com/ipam-rir/rir-manager/internal/sync"
	"github.com/ipam-rir/rir-manager/internal/trigger"
)

// Routes holds the dependencies of the v1 handlers
type Routes struct {
	ops     operations.Service
	engine  trigger.Engine
	store   store.Store
	enqueue jobs.Enqueuer
}

// NewRoutes creates a new Routes instance
func NewRoutes(ops operations.Service, engine trigger.Engine, st store.Store, q jobs.Enqueuer) *Routes {
	return &Routes{
		ops:     ops,
		engine:  engine,
		store:   st,
		enqueue: q,
	}
}

// Router creates the v1 router
func Router(ops operations.Service, engine trigger.Engine, st store.Store, q jobs.Enqueuer) http.Handler {
	routes := NewRoutes(ops, engine, st, q)

	r := chi.NewRouter()

	r.Post("/configs/{configID}/sync", routes.syncConfig)

	r.Route("/networks/{networkID}", func(r chi.Router) {
		r.Patch("/", routes.updateNetwork)
		r.Post("/reassign", routes.reassignNetwork)
		r.Post("/reallocate", routes.reallocateNetwork)
		r.Post("/remove", routes.removeNetwork)
		r.Post("/delete", routes.deleteNetwork)
	})

	r.Post("/tickets/{ticketID}/refresh", routes.refreshTicket)

	r.Post("/hooks/prefix-saved", routes.prefixSaved)
	r.Post("/hooks/prefix-deleted", routes.prefixDeleted)

	return r
}

// SyncRequest is the body of a sync request
type SyncRequest struct {
	Scopes []string `json:"scopes,omitempty"`
}

// SyncResponse reports the queued sync job
type SyncResponse struct {
	JobID    string `json:"job_id"`
	ConfigID int64  `json:"config_id"`
}

// UpdateNetworkRequest is the body of a network update. AutoReassign is a
// local switch; the patch fields are sent to the registry.
type UpdateNetworkRequest struct {
	registry.NetworkPatch
	AutoReassign *bool `json:"auto_reassign,omitempty"`
}

// PrefixSavedRequest is the body of the prefix-saved hook
type PrefixSavedRequest struct {
	Old *ipam.Prefix `json:"old,omitempty"`
	New ipam.Prefix  `json:"new"`
}

func (rr *Routes) syncConfig(w http.ResponseWriter, r *http.Request) {
	configID, err := common.GetIDParam(r, "configID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := common.GetUserID(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req SyncRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	scopes, err := pkgsync.ParseScopes(req.Scopes)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := rr.store.GetConfig(ctx, configID); err != nil {
		writeStoreError(w, r, "registry config", err)
		return
	}
	cred, err := rr.store.FindCredential(ctx, userID, configID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.WriteErrorResponse(w, operations.ErrNoCredential.Error(), http.StatusForbidden)
			return
		}
		writeStoreError(w, r, "credential", err)
		return
	}

	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, string(s))
	}
	job, err := jobs.Submit(ctx, rr.enqueue, jobs.TypeSyncConfig, jobs.SyncConfigParams{
		ConfigID:     configID,
		CredentialID: cred.ID,
		Scopes:       names,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue sync", "config_id", configID, "error", err)
		common.WriteErrorResponse(w, "Failed to enqueue sync", http.StatusServiceUnavailable)
		return
	}

	slog.InfoContext(ctx, "Sync queued", "config_id", configID, "job_id", job.ID, "scopes", names)
	common.WriteJSONResponse(w, SyncResponse{JobID: job.ID.String(), ConfigID: configID}, http.StatusAccepted)
}

func (rr *Routes) reassignNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, actor, ok := networkTarget(w, r)
	if !ok {
		return
	}
	var req operations.ReassignRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	out, err := rr.ops.Reassign(r.Context(), networkID, actor, req)
	writeOutcome(w, r, out, err)
}

func (rr *Routes) reallocateNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, actor, ok := networkTarget(w, r)
	if !ok {
		return
	}
	var req operations.ReallocateRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	out, err := rr.ops.Reallocate(r.Context(), networkID, actor, req)
	writeOutcome(w, r, out, err)
}

func (rr *Routes) updateNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, actor, ok := networkTarget(w, r)
	if !ok {
		return
	}
	var req UpdateNetworkRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.AutoReassign == nil {
		out, err := rr.ops.Update(r.Context(), networkID, actor, req.NetworkPatch)
		writeOutcome(w, r, out, err)
		return
	}

	net, ok := rr.setAutoReassign(w, r, networkID, actor, *req.AutoReassign)
	if !ok {
		return
	}
	if req.Name == nil {
		common.WriteJSONResponse(w, &operations.Outcome{
			Status:  operations.OutcomeSuccess,
			Message: fmt.Sprintf("Auto-reassign set to %t", net.AutoReassign),
			Network: net,
		}, http.StatusOK)
		return
	}
	out, err := rr.ops.Update(r.Context(), networkID, actor, req.NetworkPatch)
	writeOutcome(w, r, out, err)
}

// setAutoReassign flips the local switch for callers holding a credential on
// the network's config and returns the stored network.
func (rr *Routes) setAutoReassign(w http.ResponseWriter, r *http.Request, networkID int64, actor operations.Actor, enabled bool) (*models.Network, bool) {
	ctx := r.Context()
	net, err := rr.store.GetNetwork(ctx, networkID)
	if err != nil {
		writeStoreError(w, r, "network", err)
		return nil, false
	}
	if _, err := rr.store.FindCredential(ctx, actor.UserID, net.ConfigID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.WriteErrorResponse(w, operations.ErrNoCredential.Error(), http.StatusForbidden)
			return nil, false
		}
		writeStoreError(w, r, "credential", err)
		return nil, false
	}
	if err := rr.store.SetAutoReassign(ctx, networkID, enabled); err != nil {
		writeStoreError(w, r, "network", err)
		return nil, false
	}
	net.AutoReassign = enabled

	slog.InfoContext(ctx, "Auto-reassign updated",
		"network_id", networkID,
		"handle", net.Handle,
		"enabled", enabled,
		"user_id", actor.UserID)
	return net, true
}

func (rr *Routes) removeNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, actor, ok := networkTarget(w, r)
	if !ok {
		return
	}
	out, err := rr.ops.Remove(r.Context(), networkID, actor)
	writeOutcome(w, r, out, err)
}

func (rr *Routes) deleteNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, actor, ok := networkTarget(w, r)
	if !ok {
		return
	}
	out, err := rr.ops.Delete(r.Context(), networkID, actor)
	writeOutcome(w, r, out, err)
}

func (rr *Routes) refreshTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := common.GetIDParam(r, "ticketID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := common.GetUserID(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := rr.ops.RefreshTicket(r.Context(), ticketID, operations.Actor{UserID: userID})
	writeOutcome(w, r, out, err)
}

func (rr *Routes) prefixSaved(w http.ResponseWriter, r *http.Request) {
	var req PrefixSavedRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.New.ID == 0 {
		common.WriteErrorResponse(w, "new.id is required", http.StatusBadRequest)
		return
	}
	decision := rr.engine.OnPrefixSaved(r.Context(), req.Old, req.New)
	common.WriteJSONResponse(w, decision, http.StatusAccepted)
}

func (rr *Routes) prefixDeleted(w http.ResponseWriter, r *http.Request) {
	var p ipam.Prefix
	if err := common.DecodeJSONBody(r, &p); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if p.ID == 0 {
		common.WriteErrorResponse(w, "id is required", http.StatusBadRequest)
		return
	}
	decision := rr.engine.OnPrefixDeleted(r.Context(), p)
	common.WriteJSONResponse(w, decision, http.StatusAccepted)
}

// networkTarget reads the network ID and caller, writing a 400 on failure.
func networkTarget(w http.ResponseWriter, r *http.Request) (int64, operations.Actor, bool) {
	networkID, err := common.GetIDParam(r, "networkID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return 0, operations.Actor{}, false
	}
	userID, err := common.GetUserID(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return 0, operations.Actor{}, false
	}
	return networkID, operations.Actor{UserID: userID}, true
}

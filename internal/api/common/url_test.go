package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithParam(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		value      string
		wantValue  string
		wantErrMsg string
	}{
		{name: "plain", value: "NET-192-0-2-0-1", wantValue: "NET-192-0-2-0-1"},
		{name: "encoded slash", value: "a%2Fb", wantValue: "a/b"},
		{name: "empty", value: "", wantErrMsg: "handle cannot be empty"},
		{name: "encoded space only", value: "%20", wantErrMsg: "handle cannot be empty"},
		{name: "space in middle", value: "a%20b", wantErrMsg: "handle cannot contain whitespace"},
		{name: "tab at end", value: "a%09", wantErrMsg: "handle cannot contain whitespace"},
		{name: "invalid encoding", value: "a%ZZ", wantErrMsg: "invalid URL encoding in handle"},
		{name: "incomplete percent", value: "a%", wantErrMsg: "invalid URL encoding in handle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, err := GetAndValidateURLParam(requestWithParam("handle", tt.value), "handle")
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestGetIDParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{name: "positive", value: "42", want: 42},
		{name: "zero", value: "0", wantErr: true},
		{name: "negative", value: "-3", wantErr: true},
		{name: "not a number", value: "abc", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := GetIDParam(requestWithParam("networkID", tt.value), "networkID")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestGetUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    int64
		wantErr bool
	}{
		{name: "absent", header: "", want: 0},
		{name: "valid", header: "7", want: 7},
		{name: "padded", header: " 7 ", want: 7},
		{name: "invalid", header: "alice", wantErr: true},
		{name: "zero", header: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			id, err := GetUserID(req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

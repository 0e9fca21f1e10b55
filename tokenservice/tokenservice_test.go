// Copyright 2025 The WearSync Authors
// SPDX-License-Identifier: Apache-2.0

package tokenservice_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wearsync/oauthcache/tokenservice"
	"github.com/wearsync/oauthcache/types"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestService_RefreshToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotRefreshToken string
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if got := r.FormValue("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", got)
			}
			gotRefreshToken = r.FormValue("refresh_token")
			if _, _, ok := r.BasicAuth(); !ok {
				t.Error("expected client credentials in the Authorization header")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"a2","refresh_token":"r2","token_type":"Bearer","expires_in":3600}`))
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		cred, err := svc.RefreshToken(t.Context(), "r1")
		if err != nil {
			t.Fatalf("RefreshToken: %v", err)
		}
		if gotRefreshToken != "r1" {
			t.Errorf("server saw refresh token %q, want r1", gotRefreshToken)
		}
		if cred.AccessToken != "a2" || cred.RefreshToken != "r2" {
			t.Errorf("credential = %+v", cred)
		}
		if !cred.ExpiresAt.After(time.Now().Add(30 * time.Minute)) {
			t.Errorf("expiry %s not derived from expires_in", cred.ExpiresAt)
		}
	})

	t.Run("keeps previous refresh token when response omits one", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"a2","token_type":"Bearer","expires_in":3600}`))
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		cred, err := svc.RefreshToken(t.Context(), "r1")
		if err != nil {
			t.Fatalf("RefreshToken: %v", err)
		}
		if cred.RefreshToken != "r1" {
			t.Errorf("refresh token = %q, want the previous r1", cred.RefreshToken)
		}
	})

	t.Run("unauthorized on 401", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errors":[{"errorType":"invalid_token"}]}`))
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		_, err := svc.RefreshToken(t.Context(), "revoked")
		ae, ok := types.AsAuthError(err)
		if !ok {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Kind != types.KindUnauthorized {
			t.Errorf("kind = %s, want unauthorized", ae.Kind)
		}
		if ae.Outcome.StatusCode != http.StatusUnauthorized {
			t.Errorf("outcome status = %d, want 401", ae.Outcome.StatusCode)
		}
	})

	t.Run("unauthorized on invalid_grant", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token invalid"}`))
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		_, err := svc.RefreshToken(t.Context(), "rotated")
		ae, ok := types.AsAuthError(err)
		if !ok {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Kind != types.KindUnauthorized {
			t.Errorf("kind = %s, want unauthorized", ae.Kind)
		}
		if ae.Outcome.ErrorDetail != "Refresh token invalid" {
			t.Errorf("outcome detail = %q", ae.Outcome.ErrorDetail)
		}
	})

	t.Run("conflicting refresh on 409", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"conflict","error_description":"Concurrent refresh in progress"}`))
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		_, err := svc.RefreshToken(t.Context(), "r1")
		ae, ok := types.AsAuthError(err)
		if !ok {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Kind != types.KindConflictingRefresh {
			t.Errorf("kind = %s, want conflicting_refresh", ae.Kind)
		}
		if ae.Outcome.StatusCode != http.StatusConflict {
			t.Errorf("outcome status = %d, want 409", ae.Outcome.StatusCode)
		}
	})

	t.Run("remote http error on 503", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		svc := tokenservice.New("client-id", "client-secret", srv.URL)
		_, err := svc.RefreshToken(t.Context(), "r1")
		ae, ok := types.AsAuthError(err)
		if !ok {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Kind != types.KindRemoteHTTP {
			t.Errorf("kind = %s, want remote_http_error", ae.Kind)
		}
		if ae.Outcome.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("outcome status = %d, want 503", ae.Outcome.StatusCode)
		}
	})

	t.Run("transport error on unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		svc := tokenservice.New("client-id", "client-secret", url)
		_, err := svc.RefreshToken(t.Context(), "r1")
		ae, ok := types.AsAuthError(err)
		if !ok {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if ae.Kind != types.KindTransport {
			t.Errorf("kind = %s, want transport_error", ae.Kind)
		}
		if ae.Outcome.StatusCode != http.StatusInternalServerError {
			t.Errorf("outcome status = %d, want synthesized 500", ae.Outcome.StatusCode)
		}
	})
}

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	credential string
	identity   string
}

func (f *fakeStore) Start(_ context.Context) error { return nil }
func (f *fakeStore) Stop() error                   { return nil }

func (f *fakeStore) Credential() string { return f.credential }

func (f *fakeStore) SetCredential(_ context.Context, value string) error {
	f.credential = value

	return nil
}

func (f *fakeStore) ClearCredential(_ context.Context) error {
	f.credential = ""
	f.identity = ""

	return nil
}

func (f *fakeStore) DisplayIdentity() string { return f.identity }

func (f *fakeStore) SetDisplayIdentity(_ context.Context, name string) error {
	if f.identity == "" {
		f.identity = name
	}

	return nil
}

func expiredJWT(t *testing.T, exp time.Time) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)

	claims, err := json.Marshal(map[string]int64{"exp": exp.Unix()})
	require.NoError(t, err)

	enc := base64.RawURLEncoding

	return fmt.Sprintf("%s.%s.%s",
		enc.EncodeToString(header),
		enc.EncodeToString(claims),
		enc.EncodeToString([]byte("sig")))
}

func TestRequireLogin(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		credential string
		wantErr    string
	}{
		{
			name:    "no credential",
			wantErr: "not logged in",
		},
		{
			name:       "personal access token passes",
			credential: "ghp_sometoken",
		},
		{
			name:       "live session token passes",
			credential: expiredJWT(t, now.Add(time.Hour)),
		},
		{
			name:       "expired session token fails fast",
			credential: expiredJWT(t, now.Add(-time.Hour)),
			wantErr:    "session expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{store: &fakeStore{credential: tt.credential}}

			err := a.requireLogin()
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

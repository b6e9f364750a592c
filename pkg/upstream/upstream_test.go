package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    map[string]string
		wantErr assert.ErrorAssertionFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:   "decodes ok responses",
			status: http.StatusOK,
			body:   `{"hello": "world"}`,
			want:   map[string]string{"hello": "world"},
		},
		{
			name:    "non-success status is a status error",
			status:  http.StatusForbidden,
			body:    `forbidden`,
			wantErr: assert.Error,
			check: func(t *testing.T, err error) {
				se, ok := IsStatusError(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusForbidden, se.StatusCode)
				assert.Equal(t, "Bad Request - 403", err.Error())
			},
		},
		{
			name:    "malformed body is a decode error",
			status:  http.StatusOK,
			body:    `{`,
			wantErr: assert.Error,
			check: func(t *testing.T, err error) {
				_, ok := IsStatusError(err)
				assert.False(t, ok)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = assert.NoError
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)

			var got map[string]string
			err = Do(context.Background(), srv.Client(), "test", req, &got)
			if !tt.wantErr(t, err) {
				return
			}
			if tt.check != nil {
				tt.check(t, err)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStatusError_Wrapped(t *testing.T) {
	err := fmt.Errorf("page 0: %w", &StatusError{Service: "nvd", StatusCode: 503})
	se, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, 503, se.StatusCode)
}

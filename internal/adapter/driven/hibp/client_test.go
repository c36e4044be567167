package hibp

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
)

func hashParts(password string) (prefix, suffix string) {
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	return digest[:5], digest[5:]
}

func newTestClient(passwordURL, domainURL string) *Client {
	return NewClientWithHTTPClient(http.DefaultClient, passwordURL, domainURL, "test-key")
}

func TestCheckPassword_Found(t *testing.T) {
	prefix, suffix := hashParts("password123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/range/"+prefix, r.URL.Path)
		fmt.Fprintf(w, "0018A45C4D1DEF81644B54AB7F969B88D65:3\r\n%s:12345\r\nFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF:1\r\n", suffix)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "password123")
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, 12345, result.Count)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Password found in 12345 data breaches", result.Sources[0])
}

func TestCheckPassword_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "0018A45C4D1DEF81644B54AB7F969B88D65:3\r\nFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF:1\r\n")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "a-password-not-in-the-list")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Zero(t, result.Count)
}

func TestCheckPassword_SuffixMatchIsExact(t *testing.T) {
	_, suffix := hashParts("password123")

	// A line sharing only a leading fragment of the suffix must not count
	// as a match.
	nearMiss := suffix[:len(suffix)-1]
	if suffix[len(suffix)-1] == 'A' {
		nearMiss += "B"
	} else {
		nearMiss += "A"
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s:999\r\n", nearMiss)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "password123")
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestCheckPassword_LowercaseResponse(t *testing.T) {
	_, suffix := hashParts("password123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s:7\r\n", toLower(suffix))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "password123")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, 7, result.Count)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestCheckPassword_ServerError_FailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "password123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOracleUnavailable))
	assert.False(t, result.Found)
}

func TestCheckPassword_Unreachable_FailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckPassword(context.Background(), "password123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOracleUnavailable))
	assert.False(t, result.Found)
}

func TestCheckService_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/breacheddomain/adobe.com", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("hibp-api-key"))
		fmt.Fprint(w, `[{"Name":"Adobe","BreachDate":"2013-10-04"},{"Name":"Adobe2","BreachDate":"2019-10-22"}]`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckService(context.Background(), "adobe.com")
	require.NoError(t, err)

	assert.True(t, result.Found)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "Adobe (2013-10-04)", result.Sources[0])
	assert.Equal(t, "Adobe2 (2019-10-22)", result.Sources[1])
}

func TestCheckService_SingleObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Name":"Adobe","BreachDate":"2013-10-04"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckService(context.Background(), "adobe.com")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Adobe (2013-10-04)", result.Sources[0])
}

func TestCheckService_NotFoundIsClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckService(context.Background(), "never-breached.example")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Sources)
}

func TestCheckService_Unauthorized_FailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckService(context.Background(), "adobe.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOracleUnavailable))
	assert.False(t, result.Found)
}

func TestCheckService_MalformedBody_FailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json at all`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)

	result, err := client.CheckService(context.Background(), "adobe.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOracleUnavailable))
	assert.False(t, result.Found)
}

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/token"
)

// roundTripperFunc adapts a function to http.RoundTripper so tests can mock
// the transport.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, fn roundTripperFunc) (*Client, *token.Store) {
	t.Helper()
	store, err := token.Open(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)
	httpClient := &http.Client{Transport: fn, Timeout: time.Second}
	return New("http://example.com", httpClient, store, zap.NewNop()), store
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestAuthedCall_AttachesBearer(t *testing.T) {
	var gotAuth string
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `[]`), nil
	})
	require.NoError(t, store.Set(token.Access, "tok-123"))

	_, err := c.AudioFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestAuthedCall_NoTokenOmitsHeader(t *testing.T) {
	var sawHeader bool
	var status = http.StatusOK
	c, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		_, sawHeader = req.Header["Authorization"]
		return jsonResponse(status, `[]`), nil
	})

	_, err := c.AudioFiles(context.Background())
	require.NoError(t, err)
	assert.False(t, sawHeader)
}

func TestRefreshRetry_ExactlyOnce(t *testing.T) {
	var refreshCalls, opCalls int32
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathRefresh {
			atomic.AddInt32(&refreshCalls, 1)
			return jsonResponse(http.StatusOK, `{"access":"new-access","refresh":"new-refresh"}`), nil
		}
		atomic.AddInt32(&opCalls, 1)
		if req.Header.Get("Authorization") == "Bearer old-access" {
			return jsonResponse(http.StatusUnauthorized, `{"error":"token expired"}`), nil
		}
		return jsonResponse(http.StatusOK, `[{"id":7,"file_name":"a.mp3","status":"completed"}]`), nil
	})
	require.NoError(t, store.SetPair("old-access", "old-refresh"))

	files, err := c.AudioFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.EqualValues(t, 7, files[0].ID)

	assert.EqualValues(t, 1, refreshCalls)
	assert.EqualValues(t, 2, opCalls)
	assert.Equal(t, "new-access", store.Get(token.Access))
	assert.Equal(t, "new-refresh", store.Get(token.Refresh))
}

func TestSecond401_SurfacesUnauthenticatedWithoutLooping(t *testing.T) {
	var refreshCalls, opCalls int32
	var expired atomic.Bool
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathRefresh {
			atomic.AddInt32(&refreshCalls, 1)
			return jsonResponse(http.StatusOK, `{"access":"new-access","refresh":"new-refresh"}`), nil
		}
		atomic.AddInt32(&opCalls, 1)
		return jsonResponse(http.StatusUnauthorized, `{"error":"nope"}`), nil
	})
	require.NoError(t, store.SetPair("old-access", "old-refresh"))
	c.OnSessionExpired(func() { expired.Store(true) })

	_, err := c.AudioFiles(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	assert.EqualValues(t, 1, refreshCalls, "must not loop on repeated 401s")
	assert.EqualValues(t, 2, opCalls)
	assert.Empty(t, store.Get(token.Access), "store must be cleared")
	assert.Empty(t, store.Get(token.Refresh))
	assert.True(t, expired.Load(), "expiry observer must fire")
}

func TestRefreshFailure_ClearsSession(t *testing.T) {
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathRefresh {
			return jsonResponse(http.StatusUnauthorized, `{"error":"refresh revoked"}`), nil
		}
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	})
	require.NoError(t, store.SetPair("a", "r"))

	_, err := c.AudioFiles(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, store.Get(token.Access))
	assert.Empty(t, store.Get(token.Refresh))
}

func TestMissingRefreshToken_NoRefreshCall(t *testing.T) {
	var refreshCalls int32
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathRefresh {
			atomic.AddInt32(&refreshCalls, 1)
			return jsonResponse(http.StatusOK, `{"access":"x","refresh":"y"}`), nil
		}
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	})
	require.NoError(t, store.Set(token.Access, "stale"))

	_, err := c.AudioFiles(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, refreshCalls)
}

func TestRequestError_UsesServerMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"error field", `{"error":"Upload failed"}`, "Upload failed"},
		{"detail field", `{"detail":"quota exceeded"}`, "quota exceeded"},
		{"opaque body", `oops`, "request failed with status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, tt.body), nil
			})
			_, err := c.AudioFiles(context.Background())
			var re *RequestError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, http.StatusInternalServerError, re.Status)
			assert.Equal(t, tt.wantMsg, re.Error())
		})
	}
}

func TestTransportFailure_IsNetworkError(t *testing.T) {
	c, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := c.AudioFiles(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestValidation_NoHTTPCall(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	ctx := context.Background()

	_, err := c.StartConversation(ctx, ConversationParams{Message: "   "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = c.Login(ctx, "", "")
	require.ErrorAs(t, err, &ve)

	_, err = c.Analyze(ctx, 1, "mood")
	require.ErrorAs(t, err, &ve)

	assert.Zero(t, calls)
}

func TestLogin_NoBearerNoRetry(t *testing.T) {
	var refreshCalls int32
	var sawHeader bool
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathRefresh {
			atomic.AddInt32(&refreshCalls, 1)
			return jsonResponse(http.StatusOK, `{"access":"x","refresh":"y"}`), nil
		}
		_, sawHeader = req.Header["Authorization"]
		return jsonResponse(http.StatusUnauthorized, `{"error":"Invalid credentials"}`), nil
	})
	require.NoError(t, store.SetPair("stale-access", "stale-refresh"))

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	var re *RequestError
	require.ErrorAs(t, err, &re, "bad credentials are a request failure, not a session expiry")
	assert.Equal(t, "Invalid credentials", re.Message)
	assert.False(t, sawHeader)
	assert.Zero(t, refreshCalls, "a rejected login must not trigger a refresh")
	assert.Equal(t, "stale-refresh", store.Get(token.Refresh), "tokens untouched")
}

func TestUpload_MultipartFields(t *testing.T) {
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := req.FormValue("language"); got != "pt-BR" {
			t.Errorf("language = %q; want pt-BR", got)
		}
		f, header, err := req.FormFile("file")
		if err != nil {
			t.Fatalf("file part missing: %v", err)
		}
		defer f.Close()
		if header.Filename != "trecho.mp3" {
			t.Errorf("filename = %q; want trecho.mp3", header.Filename)
		}
		content, _ := io.ReadAll(f)
		if string(content) != "audio-bytes" {
			t.Errorf("content = %q", content)
		}
		return jsonResponse(http.StatusOK, `{"id":1,"file_name":"trecho.mp3","file_size":11,"status":"uploading"}`), nil
	})
	require.NoError(t, store.Set(token.Access, "tok"))

	file, err := c.UploadAudio(context.Background(), "trecho.mp3", strings.NewReader("audio-bytes"), "pt-BR")
	require.NoError(t, err)
	assert.EqualValues(t, 1, file.ID)
}

func TestRefreshAccess_SingleFlight(t *testing.T) {
	const workers = 5
	var refreshCalls int32
	c, store := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != pathRefresh {
			t.Errorf("unexpected request to %s", req.URL.Path)
		}
		atomic.AddInt32(&refreshCalls, 1)
		// Hold the exchange open long enough for every waiting caller to
		// join the in-flight attempt.
		time.Sleep(100 * time.Millisecond)
		return jsonResponse(http.StatusOK, `{"access":"rotated","refresh":"rotated-r"}`), nil
	})
	require.NoError(t, store.SetPair("old", "old-r"))

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			errs[n] = c.refreshAccess(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for n, err := range errs {
		require.NoError(t, err, "worker %d", n)
	}
	assert.EqualValues(t, 1, refreshCalls, "concurrent callers must share one refresh")
	assert.Equal(t, "rotated", store.Get(token.Access))
}

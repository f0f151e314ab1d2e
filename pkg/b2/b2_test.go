package b2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lrcship/pkg/checksum"
)

func newTestClient(t *testing.T, apiBase string) *Client {
	t.Helper()
	client, err := New(Config{
		APIBase: apiBase,
		KeyID:   "0051234567890ab0000000001",
		AppKey:  "K005secret",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{KeyID: "id"}); err == nil {
		t.Fatal("New without app key: want error")
	}
	if _, err := New(Config{AppKey: "key"}); err == nil {
		t.Fatal("New without key id: want error")
	}
}

func TestAuthorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/b2api/v2/b2_authorize_account" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "0051234567890ab0000000001" || pass != "K005secret" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		fmt.Fprint(w, `{"accountId":"acct1","apiUrl":"https://api005.example.com","authorizationToken":"tok_auth"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if session.AccountID != "acct1" || session.APIURL != "https://api005.example.com" || session.Token != "tok_auth" {
		t.Fatalf("session = %+v", session)
	}
}

func TestAuthorizeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"bad_auth"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Authorize(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", authErr.Status)
	}
	if authErr.Body == "" {
		t.Fatal("Body not captured")
	}
}

func TestAuthorizeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := New(Config{
		APIBase:     server.URL,
		KeyID:       "id",
		AppKey:      "key",
		MetaTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Authorize(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Err == nil {
		t.Fatal("transport error not captured")
	}
}

func TestNewUploadGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/b2api/v2/b2_get_upload_url" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "tok_auth" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			BucketID string `json:"bucketId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BucketID != "bucket123" {
			t.Errorf("body bucketId = %q (err %v)", body.BucketID, err)
		}
		fmt.Fprint(w, `{"uploadUrl":"https://pod.example.com/upload","authorizationToken":"tok_upload"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session := Session{APIURL: server.URL, Token: "tok_auth"}
	grant, err := client.NewUploadGrant(context.Background(), session, "bucket123")
	if err != nil {
		t.Fatalf("NewUploadGrant: %v", err)
	}
	if grant.URL != "https://pod.example.com/upload" || grant.Token != "tok_upload" {
		t.Fatalf("grant = %+v", grant)
	}
}

func TestNewUploadGrantRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.NewUploadGrant(context.Background(), Session{APIURL: server.URL, Token: "t"}, "b")
	var grantErr *GrantError
	if !errors.As(err, &grantErr) {
		t.Fatalf("error = %v, want *GrantError", err)
	}
	if grantErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want 503", grantErr.Status)
	}
}

func TestBucketID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/b2api/v2/b2_list_buckets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "tok_auth" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			AccountID string `json:"accountId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AccountID != "acct1" {
			t.Errorf("body accountId = %q (err %v)", body.AccountID, err)
		}
		fmt.Fprint(w, `{"buckets":[
			{"bucketId":"b_other","bucketName":"other"},
			{"bucketId":"b_hexmos","bucketName":"hexmos"}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session := Session{AccountID: "acct1", APIURL: server.URL, Token: "tok_auth"}

	id, err := client.BucketID(context.Background(), session, "hexmos")
	if err != nil {
		t.Fatalf("BucketID: %v", err)
	}
	if id != "b_hexmos" {
		t.Fatalf("BucketID = %q, want b_hexmos", id)
	}

	if _, err := client.BucketID(context.Background(), session, "missing"); err == nil {
		t.Fatal("BucketID for unknown bucket: want error")
	}
}

func TestUpload(t *testing.T) {
	content := []byte("binary bytes")
	modTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "tok_upload" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Bz-File-Name"); got != "lrc/v1.0.0/linux-amd64/lrc" {
			t.Errorf("X-Bz-File-Name = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/octet-stream" {
			t.Errorf("Content-Type = %q", got)
		}
		if got, want := r.Header.Get("X-Bz-Content-Sha1"), checksum.SHA1Bytes(content); got != want {
			t.Errorf("X-Bz-Content-Sha1 = %q, want %q", got, want)
		}
		if got := r.Header.Get("X-Bz-Info-src_last_modified_millis"); got != "1748779200000" {
			t.Errorf("src_last_modified_millis = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != string(content) {
			t.Errorf("body = %q", body)
		}
		fmt.Fprint(w, `{"fileId":"f1","fileName":"lrc/v1.0.0/linux-amd64/lrc","contentSha1":"ignored","contentLength":12}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	grant := UploadGrant{URL: server.URL + "/upload", Token: "tok_upload"}
	result, err := client.Upload(context.Background(), grant, "lrc/v1.0.0/linux-amd64/lrc", content, modTime)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.FileName != "lrc/v1.0.0/linux-amd64/lrc" || result.Size != 12 {
		t.Fatalf("result = %+v", result)
	}
}

func TestUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestTimeout)
		fmt.Fprint(w, "upload pod busy")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	grant := UploadGrant{URL: server.URL + "/upload", Token: "t"}
	_, err := client.Upload(context.Background(), grant, "lrc/v1.0.0/linux-amd64/lrc", []byte("x"), time.Now())
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
	if upErr.Key != "lrc/v1.0.0/linux-amd64/lrc" {
		t.Fatalf("Key = %q", upErr.Key)
	}
	if upErr.Status != http.StatusRequestTimeout || upErr.Body != "upload pod busy" {
		t.Fatalf("Status = %d Body = %q", upErr.Status, upErr.Body)
	}
}

func TestPublicFileURL(t *testing.T) {
	tests := []struct {
		name                                         string
		prefix, version, platformDir, fileName, want string
	}{
		{
			name:   "file",
			prefix: "lrc", version: "v1.0.0", platformDir: "linux-amd64", fileName: "lrc",
			want: "https://f005.backblazeb2.com/file/hexmos/lrc/v1.0.0/linux-amd64/lrc",
		},
		{
			name:   "platform directory",
			prefix: "lrc", version: "v1.0.0", platformDir: "linux-amd64",
			want: "https://f005.backblazeb2.com/file/hexmos/lrc/v1.0.0/linux-amd64/",
		},
		{
			name:   "version directory",
			prefix: "lrc", version: "v1.0.0",
			want: "https://f005.backblazeb2.com/file/hexmos/lrc/v1.0.0/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PublicFileURL("f005.backblazeb2.com", "hexmos", tt.prefix, tt.version, tt.platformDir, tt.fileName)
			if got != tt.want {
				t.Fatalf("PublicFileURL = %q, want %q", got, tt.want)
			}
		})
	}
}

package shooter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultBaseURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultBaseURL)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:       server.URL,
		SessionCookie: "sess-1",
		CSRFToken:     "tok-1",
		Timeout:       2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestClient_SubmitEncodesMultipartAndCSRF(t *testing.T) {
	var (
		gotCSRF, gotSession, gotCount, gotMode, gotPrompt, gotUA string
		gotImage                                                 []byte
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/images/generate/" {
			http.NotFound(w, r)
			return
		}
		gotCSRF = r.Header.Get("X-CSRFToken")
		gotUA = r.Header.Get("User-Agent")
		if ck, err := r.Cookie("sessionid"); err == nil {
			gotSession = ck.Value
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotCount = r.FormValue("count")
		gotMode = r.FormValue("mode")
		gotPrompt = r.FormValue("user_prompt")
		f, _, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotImage, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"queued","task_id":"abc","new_credits":5}`))
	})

	res, err := c.Submit(context.Background(), GenerationRequest{
		Image:      []byte("png-bytes"),
		Filename:   "shoe.png",
		Count:      4,
		Mode:       ModeCreative,
		UserPrompt: "on a beach",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.Handle.TaskID != "abc" {
		t.Fatalf("TaskID = %q, want abc", res.Handle.TaskID)
	}
	if res.Handle.SubmittedAt.IsZero() {
		t.Fatalf("SubmittedAt should be set")
	}
	if res.Credits == nil || *res.Credits != 5 {
		t.Fatalf("Credits = %v, want 5", res.Credits)
	}
	if gotCSRF != "tok-1" {
		t.Fatalf("X-CSRFToken = %q, want tok-1", gotCSRF)
	}
	if gotSession != "sess-1" {
		t.Fatalf("sessionid cookie = %q, want sess-1", gotSession)
	}
	if gotCount != "4" || gotMode != "creative" || gotPrompt != "on a beach" {
		t.Fatalf("form = count:%q mode:%q prompt:%q", gotCount, gotMode, gotPrompt)
	}
	if string(gotImage) != "png-bytes" {
		t.Fatalf("image = %q, want png-bytes", gotImage)
	}
	if !strings.HasPrefix(gotUA, "shooter/") {
		t.Fatalf("User-Agent = %q, want shooter/*", gotUA)
	}
}

func TestClient_SubmitErrors(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantReason string
		wantCode   int
		malformed  bool
	}{
		{"server error message", http.StatusBadRequest, `{"error":"Insufficient credits"}`, "Insufficient credits", 400, false},
		{"non-json failure", http.StatusInternalServerError, `<html>oops</html>`, DefaultFailureMessage, 500, false},
		{"empty error field", http.StatusPaymentRequired, `{}`, DefaultFailureMessage, 402, false},
		{"missing queued indicator", http.StatusOK, `{"status":"success"}`, DefaultFailureMessage, 200, true},
		{"missing task id", http.StatusOK, `{"status":"queued"}`, DefaultFailureMessage, 200, true},
		{"garbled success", http.StatusOK, `{not-json`, DefaultFailureMessage, 200, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Submit(context.Background(), GenerationRequest{Image: []byte("x"), Count: 1, Mode: ModeCreative})
			var submitErr *SubmitError
			if !errors.As(err, &submitErr) {
				t.Fatalf("Submit error = %v, want *SubmitError", err)
			}
			if submitErr.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", submitErr.Reason, tc.wantReason)
			}
			if submitErr.StatusCode != tc.wantCode {
				t.Fatalf("StatusCode = %d, want %d", submitErr.StatusCode, tc.wantCode)
			}
			if got := errors.Is(err, ErrMalformedResponse); got != tc.malformed {
				t.Fatalf("errors.Is(ErrMalformedResponse) = %v, want %v", got, tc.malformed)
			}
		})
	}
}

func TestClient_SubmitTransportFailure(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Submit(context.Background(), GenerationRequest{Image: []byte("x"), Count: 1, Mode: ModeCreative})
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("Submit error = %v, want *SubmitError", err)
	}
	if submitErr.StatusCode != 0 {
		t.Fatalf("StatusCode = %d, want 0 for transport failure", submitErr.StatusCode)
	}
}

func TestClient_PollMapsStatuses(t *testing.T) {
	responses := map[string]string{
		"p":   `{"status":"pending"}`,
		"ok":  `{"status":"success","urls":["/media/a.png","https://cdn.example/b.png"],"high_res_urls":["https://cdn.example/a-hr.png"],"new_credits":3}`,
		"bad": `{"status":"error","message":"Model overloaded"}`,
		"nil": `{"status":"error"}`,
		"odd": `{"status":"exploded"}`,
		"raw": `not json at all`,
	}
	var gotPaths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.EscapedPath())
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/images/status/"), "/")
		body, ok := responses[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	ctx := context.Background()

	out, err := c.Poll(ctx, JobHandle{TaskID: "p"})
	if err != nil || out.Kind != OutcomePending {
		t.Fatalf("Poll(p) = %v, %v; want pending", out, err)
	}

	out, err = c.Poll(ctx, JobHandle{TaskID: "ok"})
	if err != nil || out.Kind != OutcomeSucceeded {
		t.Fatalf("Poll(ok) = %v, %v; want succeeded", out, err)
	}
	if len(out.Images) != 2 {
		t.Fatalf("images = %#v, want 2", out.Images)
	}
	if !strings.HasSuffix(out.Images[0].PreviewURL, "/media/a.png") || !strings.HasPrefix(out.Images[0].PreviewURL, "http://127.0.0.1") {
		t.Fatalf("relative preview not resolved: %q", out.Images[0].PreviewURL)
	}
	if out.Images[0].DownloadURL != "https://cdn.example/a-hr.png" {
		t.Fatalf("download[0] = %q, want high-res url", out.Images[0].DownloadURL)
	}
	if out.Images[1].DownloadURL != "https://cdn.example/b.png" {
		t.Fatalf("download[1] = %q, want preview fallback", out.Images[1].DownloadURL)
	}
	if out.Credits == nil || *out.Credits != 3 {
		t.Fatalf("credits = %v, want 3", out.Credits)
	}

	out, _ = c.Poll(ctx, JobHandle{TaskID: "bad"})
	if out.Kind != OutcomeFailed || out.Message != "Model overloaded" {
		t.Fatalf("Poll(bad) = %#v, want failed with server message", out)
	}

	out, _ = c.Poll(ctx, JobHandle{TaskID: "nil"})
	if out.Kind != OutcomeFailed || out.Message != DefaultFailureMessage {
		t.Fatalf("Poll(nil) = %#v, want default message", out)
	}

	for _, id := range []string{"odd", "raw"} {
		out, err = c.Poll(ctx, JobHandle{TaskID: id})
		if err != nil {
			t.Fatalf("Poll(%s) error = %v, want nil", id, err)
		}
		if out.Kind != OutcomeFailed || !out.Malformed || out.Message != DefaultFailureMessage {
			t.Fatalf("Poll(%s) = %#v, want malformed failure", id, out)
		}
	}

	out, _ = c.Poll(ctx, JobHandle{TaskID: "missing"})
	if out.Kind != OutcomeFailed {
		t.Fatalf("Poll(missing) = %#v, want failed on 404", out)
	}

	if gotPaths[0] != "/images/status/p/" {
		t.Fatalf("status path = %q, want /images/status/p/", gotPaths[0])
	}
}

func TestClient_PollEscapesTaskID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})
	if _, err := c.Poll(context.Background(), JobHandle{TaskID: "a/b c"}); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if gotPath != "/images/status/a%2Fb%20c/" {
		t.Fatalf("path = %q, want escaped task id", gotPath)
	}
}

func TestClient_PollTransportFailure(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Poll(context.Background(), JobHandle{TaskID: "abc"})
	var pollErr *PollError
	if !errors.As(err, &pollErr) {
		t.Fatalf("Poll error = %v, want *PollError", err)
	}
	if pollErr.TaskID != "abc" {
		t.Fatalf("TaskID = %q, want abc", pollErr.TaskID)
	}
}

func TestClient_PollRequiresTaskID(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.Poll(context.Background(), JobHandle{}); err == nil {
		t.Fatalf("Poll returned nil error, want error")
	}
}

func TestClient_SessionFromCookies(t *testing.T) {
	anon, err := NewClient(ClientConfig{BaseURL: "https://shots.example"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if anon.Authenticated() {
		t.Fatalf("Authenticated() = true without session cookie")
	}
	if got := anon.LoginURL(); got != "https://shots.example/accounts/login/" {
		t.Fatalf("LoginURL() = %q, want default login page", got)
	}

	signedIn, err := NewClient(ClientConfig{BaseURL: "https://shots.example", SessionCookie: "s", LoginPath: "/login/"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if !signedIn.Authenticated() {
		t.Fatalf("Authenticated() = false with session cookie")
	}
	if got := signedIn.LoginURL(); got != "https://shots.example/login/" {
		t.Fatalf("LoginURL() = %q, want custom login page", got)
	}
}

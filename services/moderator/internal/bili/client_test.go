package bili

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetComments_DecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/x/v2/reply" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("oid"); got != "42" {
			t.Errorf("unexpected oid %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"0","data":{"replies":[
			{"rpid":1,"mid":10,"rcount":2,"member":{"uname":"alice"},"content":{"message":"hello"}}
		]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, Credential{SESSDATA: "s", BiliJCT: "j"})
	replies, err := c.GetComments(context.Background(), 42, 1)
	if err != nil {
		t.Fatalf("get comments: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	r := replies[0]
	if r.RPID != 1 || r.MID != 10 || r.Member.Uname != "alice" || r.Content.Message != "hello" {
		t.Fatalf("unexpected reply: %+v", r)
	}
	if !r.HasReplies() {
		t.Fatal("rcount=2 should mark the comment as having replies")
	}
}

func TestGetComments_APICodeIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":-101,"message":"not logged in"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, Credential{})
	if _, err := c.GetComments(context.Background(), 42, 1); err == nil {
		t.Fatal("expected error for non-zero api code")
	}
}

func TestDeleteComment_SendsCSRFForm(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = r.ParseForm()
		gotForm = map[string]string{
			"rpid": r.PostFormValue("rpid"),
			"oid":  r.PostFormValue("oid"),
			"csrf": r.PostFormValue("csrf"),
		}
		_, _ = w.Write([]byte(`{"code":0,"message":"0"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, Credential{BiliJCT: "csrf-token"})
	if err := c.DeleteComment(context.Background(), 42, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotForm["rpid"] != "7" || gotForm["oid"] != "42" || gotForm["csrf"] != "csrf-token" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
}

func TestClient_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, Credential{})
	if _, err := c.GetReplies(context.Background(), 42, 1, 1); err == nil {
		t.Fatal("expected error for http 502")
	}
}

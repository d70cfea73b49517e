package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/yishe-labs/relay/pkg/models"
)

func sampleEntry() models.CatalogEntry {
	return models.CatalogEntry{
		URL:         "https://bucket.example.com/hyx/abc.png",
		Name:        "asset one",
		Description: "hyx asset",
		Source:      "hyx",
		Suffix:      "png",
	}
}

func TestRegister_PostsEntry(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"code":0}`)
	}))
	defer server.Close()

	c := NewClient(resty.New(), server.URL)
	if err := c.Register(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got["url"] != "https://bucket.example.com/hyx/abc.png" {
		t.Errorf("url field = %q", got["url"])
	}
	if got["desc"] != "hyx asset" {
		t.Errorf("desc field = %q, want the description under the desc key", got["desc"])
	}
	if got["source"] != "hyx" || got["suffix"] != "png" {
		t.Errorf("payload = %v", got)
	}
}

func TestRegister_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(resty.New(), server.URL)
	if err := c.Register(context.Background(), sampleEntry()); err == nil {
		t.Error("Register succeeded on HTTP 502")
	}
}

func TestRegister_EnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1002,"msg":"duplicate name"}`)
	}))
	defer server.Close()

	c := NewClient(resty.New(), server.URL)
	if err := c.Register(context.Background(), sampleEntry()); err == nil {
		t.Error("Register succeeded on a 200 envelope with non-zero code")
	}
}

func TestRegister_NonEnvelopeBodyIsFine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "created")
	}))
	defer server.Close()

	c := NewClient(resty.New(), server.URL)
	if err := c.Register(context.Background(), sampleEntry()); err != nil {
		t.Errorf("Register failed on a non-JSON 200 body: %v", err)
	}
}

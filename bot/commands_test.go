package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/onnwee/phizone-bot/phizone"
)

// fakeStore is an in-memory BindingStore that counts writes.
type fakeStore struct {
	bindings map[string]string
	setCalls int
	getErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bindings: make(map[string]string)}
}

func (s *fakeStore) Get(ctx context.Context, chatUserID string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.bindings[chatUserID], nil
}

func (s *fakeStore) Set(ctx context.Context, chatUserID, phizoneID string) error {
	s.setCalls++
	s.bindings[chatUserID] = phizoneID
	return nil
}

// newHandler wires a Handler against a counting mock API server.
func newHandler(t *testing.T, apiHandler http.HandlerFunc) (*Handler, *fakeStore, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if apiHandler != nil {
			apiHandler(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	store := newFakeStore()
	h := &Handler{
		Store: store,
		PZ:    &phizone.Client{BaseURL: server.URL, HTTPClient: server.Client()},
	}
	return h, store, &calls
}

func writeData(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func sampleRecordPayload() map[string]any {
	return map[string]any{
		"score": 973210, "accuracy": 0.985432, "rks": 14.3219,
		"maxCombo": 812, "perfect": 1390, "goodEarly": 31, "goodLate": 17,
		"bad": 5, "miss": 8, "stdDeviation": 52.31,
		"dateCreated": "2024-01-01T00:00:00.123",
		"owner":       map[string]any{"id": 16278, "userName": "Player"},
		"chart": map[string]any{
			"level": "IN", "difficulty": 15.9,
			"song": map[string]any{"title": "Spasmodic"},
		},
	}
}

func TestDispatchIgnoresNonCommands(t *testing.T) {
	h, _, calls := newHandler(t, nil)
	for _, text := range []string{"hello there", "!other command", ""} {
		if reply, handled := h.Dispatch(context.Background(), "u1", text); handled {
			t.Errorf("Dispatch(%q) handled = true with reply %q; want ignored", text, reply)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("non-commands must not hit the network, got %d calls", calls.Load())
	}
}

func TestDispatchPrefixes(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{"id": "x"})
	})
	for _, text := range []string{"!pz random", "!phizone random"} {
		if _, handled := h.Dispatch(context.Background(), "u1", text); !handled {
			t.Errorf("Dispatch(%q) handled = false, want true", text)
		}
	}
}

func TestRecentUnboundNoNetworkCall(t *testing.T) {
	h, _, calls := newHandler(t, nil)
	reply, handled := h.Dispatch(context.Background(), "u1", "!pz")
	if !handled {
		t.Fatal("bare command should be handled")
	}
	if reply != MsgNotBound {
		t.Errorf("reply = %q, want %q", reply, MsgNotBound)
	}
	if calls.Load() != 0 {
		t.Errorf("unbound status command issued %d network calls, want 0", calls.Load())
	}
}

func TestRecentNoRecords(t *testing.T) {
	h, store, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{})
	})
	store.bindings["u1"] = "16278"
	reply := h.Recent(context.Background(), "u1")
	if reply != MsgNoRecords {
		t.Errorf("reply = %q, want %q", reply, MsgNoRecords)
	}
}

func TestRecentSuccess(t *testing.T) {
	h, store, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records" {
			t.Errorf("path = %s, want /records", r.URL.Path)
		}
		if got := r.URL.Query().Get("rangeOwnerId"); got != "16278" {
			t.Errorf("rangeOwnerId = %q, want 16278", got)
		}
		writeData(w, []any{sampleRecordPayload()})
	})
	store.bindings["u1"] = "16278"
	reply := h.Recent(context.Background(), "u1")
	if !strings.Contains(reply, "Player 的最近成绩：") {
		t.Errorf("reply missing header: %q", reply)
	}
	if !strings.Contains(reply, "分数：0973210") {
		t.Errorf("reply missing detailed record: %q", reply)
	}
}

func TestRecentServiceError(t *testing.T) {
	h, store, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	store.bindings["u1"] = "16278"
	if reply := h.Recent(context.Background(), "u1"); reply != MsgUnknownError {
		t.Errorf("reply = %q, want %q", reply, MsgUnknownError)
	}
}

func TestBindMissingArgument(t *testing.T) {
	h, _, calls := newHandler(t, nil)
	reply := h.Bind(context.Background(), "u1", nil)
	if !strings.HasPrefix(reply, "用法：") {
		t.Errorf("reply = %q, want usage message", reply)
	}
	if calls.Load() != 0 {
		t.Errorf("usage error must be caught before any network call")
	}
}

func TestBindUserNotFound(t *testing.T) {
	h, store, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	store.bindings["u1"] = "previous"
	reply := h.Bind(context.Background(), "u1", []string{"99999"})
	if reply != MsgUserNotFound {
		t.Errorf("reply = %q, want %q", reply, MsgUserNotFound)
	}
	if store.setCalls != 0 {
		t.Errorf("binding must not be mutated on 404, got %d writes", store.setCalls)
	}
	if store.bindings["u1"] != "previous" {
		t.Errorf("stored binding changed to %q", store.bindings["u1"])
	}
}

func TestBindSuccess(t *testing.T) {
	h, store, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/16278" {
			t.Errorf("path = %s, want /users/16278", r.URL.Path)
		}
		writeData(w, map[string]any{"id": 16278, "userName": "Player"})
	})
	reply := h.Bind(context.Background(), "u1", []string{"16278"})
	if !strings.Contains(reply, "绑定成功") || !strings.Contains(reply, "Player") {
		t.Errorf("reply = %q, want success greeting with display name", reply)
	}
	if store.bindings["u1"] != "16278" {
		t.Errorf("binding = %q, want 16278", store.bindings["u1"])
	}
}

func TestBestUnboundNoNetworkCall(t *testing.T) {
	h, _, calls := newHandler(t, nil)
	reply := h.Best(context.Background(), "u1", nil)
	if reply != MsgNotBound {
		t.Errorf("reply = %q, want %q", reply, MsgNotBound)
	}
	if calls.Load() != 0 {
		t.Errorf("unbound best command issued %d network calls, want 0", calls.Load())
	}
}

func TestBestEmptyBest19(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/personalBests"):
			writeData(w, map[string]any{"phi1": nil, "best19": []any{}})
		default:
			writeData(w, map[string]any{"id": 16278, "userName": "Player"})
		}
	})
	reply := h.Best(context.Background(), "u1", []string{"16278"})
	if reply != "Player 真的玩过游戏吗？" {
		t.Errorf("reply = %q, want the no-plays message", reply)
	}
}

func TestBestSuccess(t *testing.T) {
	h, _, calls := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/personalBests"):
			writeData(w, map[string]any{
				"phi1":   sampleRecordPayload(),
				"best19": []any{sampleRecordPayload(), sampleRecordPayload()},
			})
		default:
			writeData(w, map[string]any{"id": 16278, "userName": "Player"})
		}
	})
	reply := h.Best(context.Background(), "u1", []string{"16278"})
	if !strings.Contains(reply, "Player 的个人最佳：") {
		t.Errorf("reply missing header: %q", reply)
	}
	if !strings.Contains(reply, "Phi 1：") || !strings.Contains(reply, "Best 19：") {
		t.Errorf("reply missing sections: %q", reply)
	}
	if got := strings.Count(reply, "Spasmodic [IN 15]"); got != 3 {
		t.Errorf("expected 3 record lines (phi1 + 2), got %d:\n%s", got, reply)
	}
	// user info then personal bests: two sequential calls, never more
	if calls.Load() != 2 {
		t.Errorf("best issued %d API calls, want 2", calls.Load())
	}
}

func TestBestBadUser(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if reply := h.Best(context.Background(), "u1", []string{"nope"}); reply != MsgUserInvalid {
		t.Errorf("reply = %q, want %q", reply, MsgUserInvalid)
	}
}

func TestSearchNoResults(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{})
	})
	if reply := h.Search(context.Background(), []string{"nothing"}); reply != MsgNoCharts {
		t.Errorf("reply = %q, want %q", reply, MsgNoCharts)
	}
}

func TestSearchJoinsKeywords(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "spasmodic full ver" {
			t.Errorf("search = %q, want joined keywords", got)
		}
		if got := r.URL.Query().Get("perPage"); got != "3" {
			t.Errorf("perPage = %q, want 3", got)
		}
		writeData(w, []any{
			map[string]any{"id": "a", "level": "IN", "difficulty": 15.9, "song": map[string]any{"title": "Spasmodic"}},
		})
	})
	reply := h.Search(context.Background(), []string{"spasmodic", "full", "ver"})
	if !strings.Contains(reply, "找到了以下谱面：") || !strings.Contains(reply, "Spasmodic") {
		t.Errorf("reply = %q", reply)
	}
}

func TestQueryNotFound(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if reply := h.Query(context.Background(), []string{"missing-id"}); reply != MsgNoCharts {
		t.Errorf("reply = %q, want %q", reply, MsgNoCharts)
	}
}

func TestQueryUsage(t *testing.T) {
	h, _, calls := newHandler(t, nil)
	if reply := h.Query(context.Background(), nil); !strings.HasPrefix(reply, "用法：") {
		t.Errorf("reply = %q, want usage message", reply)
	}
	if calls.Load() != 0 {
		t.Errorf("usage error must not hit the network")
	}
}

func TestRandomServiceError(t *testing.T) {
	h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if reply := h.Random(context.Background()); reply != MsgUnknownError {
		t.Errorf("reply = %q, want %q", reply, MsgUnknownError)
	}
}

func TestDispatchAliases(t *testing.T) {
	tests := []struct {
		text string
		path string
	}{
		{"!pz rc", "/charts/random"},
		{"!pz r", "/charts/random"},
		{"!pz q abc", "/charts/abc"},
		{"!pz info abc", "/charts/abc"},
		{"!pz cs word", "/charts"},
		{"!pz b19 16278", "/users/16278"},
		{"!pz pb 16278", "/users/16278"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var firstPath atomic.Value
			h, _, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
				firstPath.CompareAndSwap(nil, any(r.URL.Path))
				writeData(w, map[string]any{})
			})
			h.Dispatch(context.Background(), "u1", tt.text)
			got, _ := firstPath.Load().(string)
			if got != tt.path {
				t.Errorf("first API path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestStoreFailureIsGenericError(t *testing.T) {
	h, store, _ := newHandler(t, nil)
	store.getErr = errors.New("db down")
	if reply := h.Recent(context.Background(), "u1"); reply != MsgUnknownError {
		t.Errorf("reply = %q, want %q", reply, MsgUnknownError)
	}
}

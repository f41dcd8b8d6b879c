package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/flaxos/Pizzatorio/internal/snapshot"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testState(sessionID string, ticks int64) *snapshot.State {
	return &snapshot.State{
		Version:   snapshot.Version,
		SessionID: sessionID,
		Seed:      7,
		Time:      float64(ticks) * 0.1,
		Ticks:     ticks,
		Channel:   "delivery",
		Hygiene:   100,
		Grid: snapshot.GridState{
			Width:  2,
			Height: 1,
			Tiles:  []snapshot.TileState{{Kind: "source"}, {Kind: "sink"}},
		},
		Economy: snapshot.EconomyState{Cash: 160, Reputation: 35},
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := s1.SaveSnapshot(context.Background(), testState("a", 1)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	if _, err := s2.LoadLatest(context.Background(), "a"); err != nil {
		t.Fatalf("LoadLatest after reopen: %v", err)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, testState("sess-1", 100))
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero row id")
	}

	st, err := s.LoadByID(ctx, id)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if st.SessionID != "sess-1" || st.Ticks != 100 {
		t.Fatalf("got session %q ticks %d", st.SessionID, st.Ticks)
	}
}

func TestLoadLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, tc := range []struct {
		session string
		ticks   int64
	}{
		{"a", 10}, {"a", 20}, {"b", 5},
	} {
		if _, err := s.SaveSnapshot(ctx, testState(tc.session, tc.ticks)); err != nil {
			t.Fatalf("SaveSnapshot(%s, %d): %v", tc.session, tc.ticks, err)
		}
	}

	st, err := s.LoadLatest(ctx, "a")
	if err != nil {
		t.Fatalf("LoadLatest(a): %v", err)
	}
	if st.Ticks != 20 {
		t.Fatalf("latest for a: got ticks %d, want 20", st.Ticks)
	}

	st, err = s.LoadLatest(ctx, "")
	if err != nil {
		t.Fatalf("LoadLatest(overall): %v", err)
	}
	if st.SessionID != "b" {
		t.Fatalf("overall latest: got session %q, want b", st.SessionID)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadLatest(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadLatest: got %v, want ErrNotFound", err)
	}
	if _, err := s.LoadByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadByID: got %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		session := "a"
		if i > 3 {
			session = "b"
		}
		if _, err := s.SaveSnapshot(ctx, testState(session, i)); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	all, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d rows, want 5", len(all))
	}
	if all[0].Ticks != 5 {
		t.Fatalf("newest first: got ticks %d, want 5", all[0].Ticks)
	}
	if all[0].StateHash == "" || all[0].CreatedAt == "" {
		t.Fatalf("metadata incomplete: %+v", all[0])
	}

	onlyA, err := s.List(ctx, "a", 0)
	if err != nil {
		t.Fatalf("List(a): %v", err)
	}
	if len(onlyA) != 3 {
		t.Fatalf("got %d rows for a, want 3", len(onlyA))
	}

	limited, err := s.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List(limit 2): %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("got %d rows, want 2", len(limited))
	}
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if _, err := s.SaveSnapshot(ctx, testState("doomed", i)); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}
	if _, err := s.SaveSnapshot(ctx, testState("keeper", 1)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	n, err := s.DeleteSession(ctx, "doomed")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted %d rows, want 3", n)
	}
	if _, err := s.LoadLatest(ctx, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := s.LoadLatest(ctx, "keeper"); err != nil {
		t.Fatalf("keeper should survive: %v", err)
	}
}

func TestLoad_DetectsTamperedPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, testState("a", 1))
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE snapshots SET state = ? WHERE id = ?
	`, []byte(`{"version":1}`), id); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	_, err = s.LoadByID(ctx, id)
	var slErr *snapshot.SaveLoadError
	if !errors.As(err, &slErr) {
		t.Fatalf("got %v, want SaveLoadError", err)
	}
	if slErr.Op != "verify" {
		t.Fatalf("got op %q, want verify", slErr.Op)
	}
}

func TestSaveSnapshot_RejectsWrongVersion(t *testing.T) {
	s := openTestStore(t)

	st := testState("a", 1)
	st.Version = 42

	if _, err := s.SaveSnapshot(context.Background(), st); err == nil {
		t.Fatal("expected version error")
	}
}

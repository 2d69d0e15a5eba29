package standings

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/okian/ladder/internal/domain/types"
)

func entry(id, name string, r float64) types.Entry {
	return types.Entry{PlayerID: id, Name: name, Rating: r, Deviation: 100}
}

func TestIndex_BasicOperations(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()

	if n := ix.Count(ctx); n != 0 {
		t.Fatalf("expected empty index, got %d", n)
	}
	if _, err := ix.Rank(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ix.Upsert(ctx, entry("p1", "Ana", 1500))
	ix.Upsert(ctx, entry("p2", "Bo", 1620))
	ix.Upsert(ctx, entry("p3", "Cy", 1410))

	got, err := ix.Rank(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rank != 2 || got.Name != "Ana" {
		t.Errorf("expected Ana at rank 2, got %+v", got)
	}

	top, err := ix.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p2", "p1", "p3"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].PlayerID != id || top[i].Rank != i+1 {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d", i, id, i+1, top[i].PlayerID, top[i].Rank)
		}
	}
}

func TestIndex_UpsertMovesEntry(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()
	ix.Upsert(ctx, entry("p1", "Ana", 1500))
	ix.Upsert(ctx, entry("p2", "Bo", 1600))

	// ratings go down as well as up
	ix.Upsert(ctx, entry("p2", "Bo", 1400))

	if n := ix.Count(ctx); n != 2 {
		t.Fatalf("expected 2 players, got %d", n)
	}
	got, _ := ix.Rank(ctx, "p2")
	if got.Rank != 2 || got.Rating != 1400 {
		t.Errorf("expected Bo at rank 2 with 1400, got %+v", got)
	}
}

func TestIndex_TiesBreakByName(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()
	ix.Upsert(ctx, entry("z", "Zed", 1500))
	ix.Upsert(ctx, entry("a", "Mia", 1500))
	ix.Upsert(ctx, entry("m", "Abe", 1500))

	top, _ := ix.TopN(ctx, 3)
	names := []string{top[0].Name, top[1].Name, top[2].Name}
	if fmt.Sprint(names) != "[Abe Mia Zed]" {
		t.Errorf("unexpected tie order %v", names)
	}
}

func TestIndex_InvalidLimit(t *testing.T) {
	if _, err := NewIndex().TopN(context.Background(), 0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestIndex_Replace(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()
	ix.Upsert(ctx, entry("old", "Old", 2000))

	ix.Replace(ctx, []types.Entry{entry("p1", "Ana", 1500), entry("p2", "Bo", 1700)})

	if _, err := ix.Rank(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("replaced entries should be gone, got %v", err)
	}
	if n := ix.Count(ctx); n != 2 {
		t.Errorf("expected 2 players, got %d", n)
	}
}

func TestIndex_MatchesSortedOrder(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()
	rng := rand.New(rand.NewSource(7))

	latest := map[string]types.Entry{}
	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("p%03d", rng.Intn(300))
		e := entry(id, id, float64(1200+rng.Intn(600)))
		ix.Upsert(ctx, e)
		latest[id] = e
	}

	want := make([]types.Entry, 0, len(latest))
	for _, e := range latest {
		want = append(want, e)
	}
	sort.Slice(want, func(i, j int) bool { return before(&want[i], &want[j]) })

	top, err := ix.TopN(ctx, len(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if top[i].PlayerID != want[i].PlayerID {
			t.Fatalf("position %d: expected %s, got %s", i, want[i].PlayerID, top[i].PlayerID)
		}
		r, _ := ix.Rank(ctx, want[i].PlayerID)
		if r.Rank != i+1 {
			t.Fatalf("rank of %s: expected %d, got %d", want[i].PlayerID, i+1, r.Rank)
		}
	}
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i%20)
				ix.Upsert(ctx, entry(id, id, float64(1000+i)))
				_, _ = ix.TopN(ctx, 5)
				_, _ = ix.Rank(ctx, id)
			}
		}(w)
	}
	wg.Wait()

	if n := ix.Count(ctx); n != 160 {
		t.Errorf("expected 160 players, got %d", n)
	}
}

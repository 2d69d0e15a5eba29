package standings

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkIndex_Upsert(b *testing.B) {
	ctx := context.Background()
	ix := NewIndex()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("p%d", i%10000)
		ix.Upsert(ctx, entry(id, id, float64(1000+i%1000)))
	}
}

func BenchmarkIndex_Rank(b *testing.B) {
	ctx := context.Background()
	ix := NewIndex()
	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("p%d", i)
		ix.Upsert(ctx, entry(id, id, float64(1000+i%1000)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ix.Rank(ctx, fmt.Sprintf("p%d", i%10000))
	}
}

func BenchmarkIndex_TopN(b *testing.B) {
	ctx := context.Background()
	ix := NewIndex()
	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("p%d", i)
		ix.Upsert(ctx, entry(id, id, float64(1000+i%1000)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ix.TopN(ctx, 100)
	}
}

package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestForRange(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 1000
	seen := make([]int32, n)
	var calls int64

	ForRange(n, func(start, end int) {
		atomic.AddInt64(&calls, 1)
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	}, cfg)

	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
	if calls != 4 {
		t.Errorf("Expected 4 chunks, got %d", calls)
	}
}

func TestForRange_Sequential(t *testing.T) {
	cfg := Config{Enabled: false, NumWorkers: 8, MinChunkSize: 1}

	var got [][2]int
	ForRange(100, func(start, end int) {
		got = append(got, [2]int{start, end})
	}, cfg)

	if len(got) != 1 || got[0] != [2]int{0, 100} {
		t.Errorf("Expected a single [0 100) call, got %v", got)
	}
}

func TestForRange_SmallChunk(t *testing.T) {
	// Test that small work units fall back to sequential.
	cfg := DefaultConfig()
	cfg.NumWorkers = 4
	cfg.Enabled = true

	var calls int
	n := 2*cfg.MinChunkSize - 1

	ForRange(n, func(start, end int) {
		calls++
		if start != 0 || end != n {
			t.Errorf("Expected [0 %d), got [%d %d)", n, start, end)
		}
	}, cfg)

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestForRange_Empty(t *testing.T) {
	ForRange(0, func(_, _ int) {
		t.Error("f must not be called for n == 0")
	}, DefaultConfig())
}

func TestForRange_ChunksAreDisjoint(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 10}

	var mu sync.Mutex
	total := 0
	ForRange(95, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		if end-start < 10 && end != 95 {
			t.Errorf("chunk [%d %d) smaller than MinChunkSize", start, end)
		}
		total += end - start
	}, cfg)

	if total != 95 {
		t.Errorf("Expected 95 items, got %d", total)
	}
}

func BenchmarkForRange(b *testing.B) {
	cfg := DefaultConfig()
	n := 1 << 16
	data := make([]float64, n)

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			ForRange(n, func(s, e int) {
				for j := s; j < e; j++ {
					data[j] = float64(j) * 0.5
				}
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			ForRange(n, func(s, e int) {
				for j := s; j < e; j++ {
					data[j] = float64(j) * 0.5
				}
			}, cfgSeq)
		}
	})
}

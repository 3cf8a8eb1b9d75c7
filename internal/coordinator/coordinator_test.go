package coordinator

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDo_SingleCaller(t *testing.T) {
	c := New()

	v, _, err := c.Do("feed:technology", func() (any, error) {
		return "result", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != "result" {
		t.Errorf("value = %v, want %q", v, "result")
	}
}

func TestDo_ConcurrentMisses_SingleComputation(t *testing.T) {
	// 同一キーへのN並行リクエストは、計算を1回だけ実行し全員に同じ結果を配る
	c := New()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	const n = 20
	results := make([]any, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.Do("feed:sports", func() (any, error) {
				atomic.AddInt32(&calls, 1)
				close(started)
				<-release
				return "articles", nil
			})
			if err != nil {
				t.Errorf("caller %d: unexpected error %v", i, err)
			}
			results[i] = v
		}(i)
	}

	// リーダーが計算に入ってから解放することで、全フォロワーが同一飛行に合流する
	<-started
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("computation calls = %d, want 1", got)
	}
	for i, v := range results {
		if v != "articles" {
			t.Errorf("caller %d: value = %v, want %q", i, v, "articles")
		}
	}
}

func TestDo_LeaderError_PropagatedToFollowers(t *testing.T) {
	c := New()

	wantErr := errors.New("upstream down")
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 5)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := c.Do("feed:health", func() (any, error) {
				close(started)
				<-release
				return nil, wantErr
			})
			errs[i] = err
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d: error = %v, want %v", i, err, wantErr)
		}
	}
}

func TestDo_EntryClearedAfterCompletion(t *testing.T) {
	// 完了後はエントリがクリアされ、次の呼び出しが新しい計算を開始する
	c := New()

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("fail")
	}

	c.Do("feed:nation", fn)
	c.Do("feed:nation", fn)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("逐次2回の呼び出しは計算を2回実行するべき, got %d", got)
	}
}

func TestDo_DifferentKeysIndependent(t *testing.T) {
	c := New()

	var calls int32
	var wg sync.WaitGroup
	for _, key := range []string{"feed:business", "feed:sports"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			c.Do(key, func() (any, error) {
				atomic.AddInt32(&calls, 1)
				return key, nil
			})
		}(key)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("異なるキーは独立に計算されるべき, calls = %d, want 2", got)
	}
}

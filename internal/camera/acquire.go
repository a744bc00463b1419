package camera

import (
	"context"
	"sync"
)

// Acquisition はソース開始の結果を一度だけ解決する非同期ハンドル
type Acquisition struct {
	source Source
	done   chan struct{}
	once   sync.Once
	err    error
}

// Acquire はソースの開始をバックグラウンドで実行する
func Acquire(ctx context.Context, source Source) *Acquisition {
	a := &Acquisition{
		source: source,
		done:   make(chan struct{}),
	}

	go func() {
		a.resolve(source.Start(ctx))
	}()

	return a
}

// Resolved は既に結果が確定したAcquisitionを作成する
func Resolved(source Source, err error) *Acquisition {
	a := &Acquisition{
		source: source,
		done:   make(chan struct{}),
	}
	a.resolve(err)
	return a
}

func (a *Acquisition) resolve(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Source は対象のソースを返す
func (a *Acquisition) Source() Source {
	return a.source
}

// Done は結果が確定すると閉じられるチャンネルを返す
func (a *Acquisition) Done() <-chan struct{} {
	return a.done
}

// Err は確定した結果を返す。未確定の場合はnil
func (a *Acquisition) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Wait は結果が確定するまで待つ
func (a *Acquisition) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

package anchor

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// TxRecorder stores the anchoring transaction hash once the call succeeds.
// Implemented by the ledger repository.
type TxRecorder interface {
	SetAnchorTx(ctx context.Context, fileID, txHash string) error
}

// Dispatcher runs anchoring asynchronously after the ledger commit with a
// bounded timeout and exponential backoff. Failures are logged and dropped;
// the stored file stays retrievable either way.
type Dispatcher struct {
	anchorer Anchorer
	recorder TxRecorder
	log      *zap.Logger

	timeout    time.Duration
	maxRetries uint64

	wg sync.WaitGroup
}

// NewDispatcher constructs a dispatcher. timeout bounds the whole attempt
// chain for one file.
func NewDispatcher(anchorer Anchorer, recorder TxRecorder, log *zap.Logger, timeout time.Duration, maxRetries uint64) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		anchorer:   anchorer,
		recorder:   recorder,
		log:        log,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Dispatch fires anchoring in the background and returns immediately.
// The caller's context is deliberately not used: the request that triggered
// anchoring may already be finished.
func (d *Dispatcher) Dispatch(fileID, version, contentHash string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(fileID, version, contentHash)
	}()
}

// Wait blocks until all dispatched anchorings finished. Used on shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) run(fileID, version, contentHash string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(500*time.Millisecond))

	var txHash string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		h, err := d.anchorer.Anchor(ctx, fileID, version, contentHash)
		if err != nil {
			return retry.RetryableError(err)
		}
		txHash = h
		return nil
	})
	if err != nil {
		d.log.Warn("anchoring failed",
			zap.String("fileID", fileID),
			zap.Error(err),
		)
		return
	}
	if txHash == "" {
		return
	}
	if err := d.recorder.SetAnchorTx(ctx, fileID, txHash); err != nil {
		d.log.Warn("recording anchor tx failed",
			zap.String("fileID", fileID),
			zap.String("txHash", txHash),
			zap.Error(err),
		)
		return
	}
	d.log.Info("anchored",
		zap.String("fileID", fileID),
		zap.String("txHash", txHash),
	)
}

package contentstore

import (
	"context"
	"log/slog"

	"github.com/ipfs/go-cid"

	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/platform/circuit"
)

// ResilientBackend fronts a remote backend with a local mirror. Writes must
// reach the remote; reads fall back to the mirror while the circuit is open.
type ResilientBackend struct {
	remote  Backend
	mirror  Backend
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewResilientBackend(remote, mirror Backend, breaker *circuit.Breaker, logger *slog.Logger) *ResilientBackend {
	if breaker == nil {
		breaker = circuit.New("content_store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResilientBackend{remote: remote, mirror: mirror, breaker: breaker, logger: logger}
}

func (r *ResilientBackend) Write(ctx context.Context, id cid.Cid, data []byte) error {
	if err := r.remote.Write(ctx, id, data); err != nil {
		if isUnavailable(err) {
			r.recordFailure(ctx, err)
		}
		return err
	}
	r.recordSuccess(ctx)
	if err := r.mirror.Write(ctx, id, data); err != nil {
		r.logger.WarnContext(ctx, "failed to mirror content", "cid", id.String(), "error", err)
	}
	return nil
}

func (r *ResilientBackend) Read(ctx context.Context, id cid.Cid) ([]byte, error) {
	if r.breaker.IsOpen() {
		if data, err := r.mirror.Read(ctx, id); err == nil {
			r.logger.WarnContext(ctx, "circuit open, serving mirrored content",
				"cid", id.String(),
				"circuit", r.breaker.Name(),
			)
			return data, nil
		}
	}

	data, err := r.remote.Read(ctx, id)
	if err != nil {
		if !isUnavailable(err) {
			return nil, err
		}
		if useFallback := r.recordFailure(ctx, err); useFallback {
			if mirrored, merr := r.mirror.Read(ctx, id); merr == nil {
				return mirrored, nil
			}
		}
		return nil, err
	}
	r.recordSuccess(ctx)
	if werr := r.mirror.Write(ctx, id, data); werr != nil {
		r.logger.WarnContext(ctx, "failed to mirror content", "cid", id.String(), "error", werr)
	}
	return data, nil
}

func (r *ResilientBackend) Pin(ctx context.Context, id cid.Cid) (bool, error) {
	ok, err := r.remote.Pin(ctx, id)
	if err != nil {
		if isUnavailable(err) {
			r.recordFailure(ctx, err)
		}
		return false, err
	}
	r.recordSuccess(ctx)
	if ok {
		_, _ = r.mirror.Pin(ctx, id)
	}
	return ok, nil
}

func (r *ResilientBackend) recordFailure(ctx context.Context, err error) bool {
	useFallback, change := r.breaker.RecordFailure()
	if change.Opened {
		r.logger.ErrorContext(ctx, "circuit breaker opened",
			"circuit", r.breaker.Name(),
			"error", err,
		)
	}
	return useFallback
}

func (r *ResilientBackend) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "circuit breaker closed", "circuit", r.breaker.Name())
	}
}

func isUnavailable(err error) bool {
	return !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeMalformedDocument)
}

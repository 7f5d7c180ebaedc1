package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/principal"
)

// IdempotentCommand is implemented by commands whose successful result is
// replayed when the same key is seen again.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer to a zero value of the handler result.
	ResultPrototype() any
}

// Fingerprinter lets a command detect reuse of a key with a different body.
type Fingerprinter interface {
	Fingerprint() string
}

type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	ErrIdempotencyKeyReuse = errors.New("middleware: idempotency key reused with a different request")
	errMissingPrototype    = errors.New("middleware: idempotent command requires a pointer result prototype")
)

type IdempotencyOptions struct {
	TTL   time.Duration
	Codec ResultCodec
	Now   func() time.Time
}

// Idempotency caches successful results per caller, command key and
// idempotency key. Failures are not cached so a corrected retry can run.
func Idempotency(store IdempotencyStore, opts IdempotencyOptions) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = JSONResultCodec{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := scopedKey(ctx, cmd.Key(), idCmd.IdempotencyKey())
			var fingerprint string
			if fp, ok := cmd.(Fingerprinter); ok {
				fingerprint = fp.Fingerprint()
			}

			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found && (rec.ExpiresAt.IsZero() || now().Before(rec.ExpiresAt)) {
				if rec.Fingerprint != fingerprint {
					return nil, fmt.Errorf("%w: %s", ErrIdempotencyKeyReuse, idCmd.IdempotencyKey())
				}
				return replay(codec, rec, idCmd.ResultPrototype())
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			payload, err := codec.Encode(result)
			if err != nil {
				return nil, err
			}
			at := now().UTC()
			rec = IdempotencyRecord{Key: key, Fingerprint: fingerprint, Payload: payload, OccurredAt: at}
			if opts.TTL > 0 {
				rec.ExpiresAt = at.Add(opts.TTL)
			}
			if err := store.Save(ctx, rec); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func scopedKey(ctx context.Context, cmdKey, idemKey string) string {
	caller := "anonymous"
	if p, ok := principal.FromContext(ctx); ok && !p.IsZero() {
		caller = p.UserID
	}
	return cmdKey + ":" + caller + ":" + idemKey
}

func replay(codec ResultCodec, rec IdempotencyRecord, proto any) (any, error) {
	rv := reflect.ValueOf(proto)
	if proto == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return rv.Elem().Interface(), nil
}

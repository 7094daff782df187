// Package redis connects to Redis and provides the Redis-backed pieces of
// the dispatcher: AttemptLog, a result sink, and RequestQueue, a request
// source.
//
// Connect retries the initial ping according to Config, and Healthcheck
// adapts a client to the readiness probe used by pkg/httpserver:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	log, _ := redis.NewAttemptLog(client, cfg)
//	queue, _ := redis.NewRequestQueue(client, cfg)
//
// AttemptLog writes each attempt to a per-request list and each outcome to a
// per-request key plus a capped stream, all in MULTI/EXEC pipelines. Wrap it
// in dispatch.AsyncSink so Redis latency never reaches the dispatch path.
//
// RequestQueue is a plain list: Push appends with RPUSH and Next pops with
// BLPOP. Messages are dispatch.Request JSON; undecodable messages surface as
// source.ErrMalformedRequest and are dropped by the pump.
//
// Errors from this package wrap sentinels such as ErrRedisNotReady or
// ErrWriteFailed with errors.Join.
package redis

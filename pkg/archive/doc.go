// Package archive keeps a durable JSON copy of every terminal dispatch
// outcome, either in an S3 bucket (S3Archive) or on the local filesystem
// (LocalArchive).
//
// Both types implement dispatch.Sink. Only Finalize writes; attempts arrive
// with the outcome. Objects are keyed by Key as
// <prefix>/YYYY/MM/DD/<request id>.json using the UTC finish time, so a day's
// outcomes can be listed or expired by prefix.
//
//	arch, err := archive.NewS3Archive(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	engine, err := dispatch.New(registry, dispatch.WithSink(dispatch.NewAsyncSink(arch, dispatch.AsyncSinkOptions{BufferSize: 256})))
//
// S3Archive works with S3-compatible services through S3Config.Endpoint and
// S3Config.ForcePathStyle.
package archive

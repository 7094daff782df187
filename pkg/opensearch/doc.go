// Package opensearch indexes dispatch outcomes in OpenSearch for search and
// reporting.
//
// New builds an *opensearch.Client from Config and verifies the cluster with
// an Info call. OutcomeIndexer implements dispatch.Sink: each terminal
// outcome becomes one document in Config.Index, keyed by request id, so a
// reused id overwrites the earlier document. EnsureIndex creates the index
// with keyword mappings on first start.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	indexer, err := opensearch.NewOutcomeIndexer(client, cfg.Index)
//	if err != nil {
//		return err
//	}
//	if err := indexer.EnsureIndex(ctx); err != nil {
//		return err
//	}
//
// Healthcheck returns a probe for readiness endpoints.
package opensearch

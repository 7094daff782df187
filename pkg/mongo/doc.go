// Package mongo stores dispatch outcomes in MongoDB.
//
// New connects with the official v2 driver, retrying until the server
// answers a ping. OutcomeStore implements dispatch.Sink over a collection
// with one document per request id: attempts are written as they happen and
// Finalize stamps the terminal state.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store, err := mongo.NewOutcomeStore(db.Collection(cfg.Collection))
//
// Healthcheck returns a ping probe for readiness endpoints.
package mongo

// Package channel implements dispatch.Sender for the email, SMS and push
// providers.
//
// HTTPSender performs exactly one JSON POST per delivery attempt:
//
//	POST <base URL>/notifications
//	{"notification":{"title":"...","content":"...","email":"..."}}
//
// The recipient key depends on the channel: "email", "phone_number" or
// "device_token". WithRecipientField overrides it. Retries are the engine's
// job, so the sender only classifies the single response:
//
//   - 2xx is a success
//   - 408, 425, 429 and 5xx are transient
//   - any other 4xx is permanent
//   - network errors and timeouts are transient
//
// A sender whose base URL is missing or malformed is still constructed and
// reports a permanent ErrMissingConfig on every attempt, so an unconfigured
// provider fails its requests instead of the whole process.
//
// # Authentication
//
// WithToken adds a bearer token. WithSigningSecret signs the body with
// HMAC-SHA256 over "<unix timestamp>.<body>" and sends X-Signature,
// X-Signature-Timestamp and X-Signature-ID. Providers check it with Verify.
//
// # Circuit breaker
//
// WithCircuitBreaker stops sending to a provider after consecutive transient
// failures. While open, Send returns a transient ErrCircuitOpen without any
// network I/O, and the engine keeps retrying with backoff until the breaker
// lets a probe through.
//
// # Postmark
//
// PostmarkSender delivers email through github.com/mrz1836/postmark. NewSenders
// and NewRegistry pick it for the email channel when POSTMARK_SERVER_TOKEN is set.
//
// # Configuration
//
//	var cfg channel.Config
//	config.MustLoad(&cfg)
//	registry, err := channel.NewRegistry(cfg, channel.WithLogger(log))
package channel

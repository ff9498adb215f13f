// Package llm provides an OpenAI-compatible chat client (OpenRouter by default)
// used for image analysis and text translation.
//
// # Requests
//
// Client.Complete sends one chat completion. Images are attached inline as
// base64 data URIs using the multipart content schema; text-only prompts use
// the plain string schema. Client.HealthCheck verifies key and model.
//
// # Failure classification
//
// The client never retries. Every error is tagged with services.ErrTransient
// (HTTP 408/429/5xx, network timeouts, empty content) or services.ErrRejected
// (other 4xx, malformed payloads) so callers can drive a retry policy. Running
// out of attempts is reported separately as services.ErrPermanent by the retry
// policy. A StatusError carries the server's Retry-After hint.
//
// # Parsing helpers
//
// DecodeLLMJSON tolerates code fences and prose around a JSON payload.
package llm

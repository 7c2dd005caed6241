// Package webhook implements the GitHub webhook ingestion pipeline with
// HMAC-SHA256 verification and idempotent storage.
//
// # Security Model
//
// - HMAC-SHA256 signatures verified using crypto/subtle (constant-time comparison)
// - Body size limits enforced to prevent DoS attacks
// - No signature details leaked in error responses (always generic 401)
// - Missing and mismatched signatures are indistinguishable to the caller
// - Request logging excludes payload contents
//
// # Request Flow
//
//  1. HTTP POST arrives at /webhook
//  2. Body size checked (reject with 413 if too large)
//  3. X-Hub-Signature-256 extracted and verified (reject with 401 on any failure)
//  4. Body decoded as JSON (reject with 400 if malformed)
//  5. X-GitHub-Event classified: ping acknowledged immediately; issues and
//     issue_comment normalized and stored; anything else rejected with 400
//  6. Insert keyed on X-GitHub-Delivery is idempotent; storage failures are
//     logged and swallowed so the delivery is still acknowledged
//  7. 204 No Content returned
//
// Storage is best-effort on purpose: GitHub disables webhooks that keep
// returning non-2xx, so a transient database problem must not escalate into
// lost delivery subscriptions.
package webhook

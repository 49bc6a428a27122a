// Package instagram connects tenant accounts to Instagram Business messaging
// through Meta's OAuth dialog and Graph API, and keeps the resulting mapping
// verified over time.
//
// Connection flow:
//   - A one-time connection token binds the anonymous OAuth callback back to
//     the authenticated user that initiated the flow. The token is redeemed
//     for a signed handoff cookie that survives the redirect round-trip to
//     the provider and back (see the handoff package).
//   - On callback the Connector walks /me/accounts with page-scoped tokens,
//     resolves each Page's linked Instagram Business Account, and replaces
//     the tenant's Business rows in one transaction (see the integration
//     package).
//
// Status verification:
//   - StatusChecker re-derives integration health on demand, classifying
//     every provider failure into a fixed reason enumeration and caching
//     results so client polling does not hammer the Graph API. Cooldown and
//     freshness windows are persisted on the Business record.
//
// Persistence is Bun-backed; repositories follow the go-repository-bun
// conventions so downstream products can swap dialects.
package instagram

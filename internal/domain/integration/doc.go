// Package integration contains the Integration bounded context.
// This context manages the resilient marketplace integration layer: outbound
// pushes (tracking numbers, CS replies) and inbound syncs (orders, inquiries).
//
// Key concepts:
//   - MarketGateway: Port interface for connecting to marketplaces (Coupang, SmartStore)
//   - MarketCredential: Per-seller API credentials for one marketplace
//   - PushAuditLogEntry: Append-only record of one push attempt-chain
//   - FailureCategory: Closed taxonomy for classifying marketplace failures
//   - NormalizedOrder / NormalizedInquiry: Canonical shapes extracted from
//     heterogeneous marketplace payloads
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration

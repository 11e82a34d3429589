// Package solana houses ledger connectivity for the wallet tools: the narrow
// Ledger interface the orchestrator depends on, cluster (network)
// definitions, the JSON-RPC client, an endpoint registry, the lifetime
// anchor cache and the solana-go transaction adapter.
package solana

// Package config loads the solwallet daemon configuration from a JSON file
// and applies environment overrides on top of it. Network endpoints may also
// come from a YAML definitions file, see solana.LoadNetworkDefinitions.
package config

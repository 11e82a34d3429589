package solana

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Network is the cluster selection the wallet tools operate against.
type Network string

const (
	Devnet  Network = "devnet"
	Mainnet Network = "mainnet"
)

// DefaultNetwork is active until switch_network is called.
const DefaultNetwork = Devnet

// DefaultEndpoints are the public RPC endpoints of each cluster.
var DefaultEndpoints = map[Network]string{
	Devnet:  "https://api.devnet.solana.com",
	Mainnet: "https://api.mainnet-beta.solana.com",
}

// ParseNetwork validates a network name. "mainnet-beta" is accepted as an
// alias of mainnet because that is the cluster's canonical name.
func ParseNetwork(raw string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(Devnet):
		return Devnet, nil
	case string(Mainnet), "mainnet-beta":
		return Mainnet, nil
	default:
		return "", fmt.Errorf(`Invalid network: %q. Must be "devnet" or "mainnet".`, raw)
	}
}

// ParseEndpoint validates an RPC endpoint override.
func ParseEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("Invalid rpcUrl: %s. Must be an absolute http(s) URL", raw)
	}
	return trimmed, nil
}

// NetworkDefinitions models the structure of configs/networks.yaml.
type NetworkDefinitions struct {
	Networks map[string]NetworkDefinition `yaml:"networks"`
}

// NetworkDefinition describes a single cluster endpoint definition.
type NetworkDefinition struct {
	RPCURL      string `yaml:"rpc_url"`
	Description string `yaml:"description"`
}

// LoadNetworkDefinitions parses the YAML file containing cluster endpoints.
// An empty path yields an empty definition set.
func LoadNetworkDefinitions(path string) (NetworkDefinitions, error) {
	if strings.TrimSpace(path) == "" {
		return NetworkDefinitions{Networks: map[string]NetworkDefinition{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return NetworkDefinitions{}, fmt.Errorf("读取网络配置失败: %w", err)
	}

	var defs NetworkDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return NetworkDefinitions{}, fmt.Errorf("解析网络配置失败: %w", err)
	}
	if defs.Networks == nil {
		defs.Networks = map[string]NetworkDefinition{}
	}
	return defs, nil
}

// ResolveEndpoints layers the defaults, the YAML definitions and explicit
// overrides (later wins) and validates every resulting URL.
func ResolveEndpoints(defs NetworkDefinitions, overrides map[string]string) (map[Network]string, error) {
	endpoints := make(map[Network]string, len(DefaultEndpoints))
	for network, endpoint := range DefaultEndpoints {
		endpoints[network] = endpoint
	}

	apply := func(source, name, endpoint string) error {
		if strings.TrimSpace(endpoint) == "" {
			return nil
		}
		network, err := ParseNetwork(name)
		if err != nil {
			return fmt.Errorf("%s 中的网络 %s 不受支持", source, name)
		}
		parsed, err := ParseEndpoint(endpoint)
		if err != nil {
			return fmt.Errorf("%s 中网络 %s 的 RPC 地址无效: %w", source, name, err)
		}
		endpoints[network] = parsed
		return nil
	}

	for name, def := range defs.Networks {
		if err := apply("networks.yaml", name, def.RPCURL); err != nil {
			return nil, err
		}
	}
	for name, endpoint := range overrides {
		if err := apply("config", name, endpoint); err != nil {
			return nil, err
		}
	}
	return endpoints, nil
}

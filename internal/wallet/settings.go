package wallet

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"OpenMCP-Wallet/internal/solana"
)

// Selection 是一次性替换的网络及其 RPC 地址。
type Selection struct {
	Network  solana.Network
	Endpoint string
}

// Settings 持有工具之间共享的可变状态：当前网络与默认钱包。
// 读写均为原子操作，不提供跨调用的一致性。
type Settings struct {
	endpoints map[solana.Network]string
	selection atomic.Pointer[Selection]
	wallet    atomic.Pointer[KeyMaterial]
}

// NewSettings 以 initial 作为初始网络。endpoints 必须覆盖所有网络。
func NewSettings(endpoints map[solana.Network]string, initial solana.Network) (*Settings, error) {
	s := &Settings{endpoints: maps.Clone(endpoints)}
	for _, n := range []solana.Network{solana.Devnet, solana.Mainnet} {
		if s.endpoints[n] == "" {
			return nil, fmt.Errorf("no RPC endpoint configured for %s", n)
		}
	}
	if _, ok := s.endpoints[initial]; !ok {
		return nil, fmt.Errorf("unknown network %q", initial)
	}
	s.Switch(initial)
	return s, nil
}

// Endpoints 返回所有已配置网络的 RPC 地址，已排序。
func (s *Settings) Endpoints() []string {
	return slices.Sorted(maps.Values(s.endpoints))
}

// Selection 返回当前网络。
func (s *Settings) Selection() Selection {
	return *s.selection.Load()
}

// Switch 原子地替换网络与 RPC 地址。
func (s *Settings) Switch(network solana.Network) Selection {
	sel := &Selection{Network: network, Endpoint: s.endpoints[network]}
	s.selection.Store(sel)
	return *sel
}

// DefaultWallet 返回默认钱包，未配置时第二个返回值为 false。
func (s *Settings) DefaultWallet() (KeyMaterial, bool) {
	k := s.wallet.Load()
	if k == nil || k.IsZero() {
		return KeyMaterial{}, false
	}
	return *k, true
}

// SetDefaultWallet 替换默认钱包。
func (s *Settings) SetDefaultWallet(key KeyMaterial) {
	s.wallet.Store(&key)
}

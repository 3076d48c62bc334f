package chain

import (
	"fmt"
	"sort"
)

// Network 描述一个可连接的链
type Network struct {
	Env      string `json:"env"`
	Name     string `json:"name"`
	ChainID  uint64 `json:"chain_id"`
	RPCURL   string `json:"rpc_url"`
	Currency string `json:"currency"`
}

// 环境到网络的映射：开发环境使用本地 Hardhat，生产环境使用 Monad Testnet
var networks = map[string]Network{
	"development": {Env: "development", Name: "Hardhat", ChainID: 31337, RPCURL: "http://127.0.0.1:8545", Currency: "ETH"},
	"production":  {Env: "production", Name: "Monad Testnet", ChainID: 10143, RPCURL: "https://testnet-rpc.monad.xyz", Currency: "MON"},
}

// NetworkFor 返回环境对应的网络。rpcOverride 非空时替换默认 RPC 地址。
func NetworkFor(env, rpcOverride string) (Network, error) {
	n, ok := networks[env]
	if !ok {
		return Network{}, fmt.Errorf("no chain network configured for environment %q", env)
	}
	if rpcOverride != "" {
		n.RPCURL = rpcOverride
	}
	return n, nil
}

// Networks 返回所有已知网络，按环境名排序
func Networks() []Network {
	list := make([]Network, 0, len(networks))
	for _, n := range networks {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Env < list[j].Env })
	return list
}

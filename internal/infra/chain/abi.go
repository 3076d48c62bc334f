// Package chain 封装与 BuyEarth 合约的交互：读取格子状态、提交购买交易、管理操作员钱包。
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BuyEarthABI 是 BuyEarth 合约的 ABI。
const BuyEarthABI = `[
	{
		"inputs": [],
		"name": "getEarths",
		"outputs": [
			{
				"components": [
					{"internalType": "uint8",   "name": "color",     "type": "uint8"},
					{"internalType": "uint256", "name": "price",     "type": "uint256"},
					{"internalType": "string",  "name": "image_url", "type": "string"}
				],
				"internalType": "struct BuyEarth.Earth[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_id",        "type": "uint256"},
			{"internalType": "uint8",   "name": "_color",     "type": "uint8"},
			{"internalType": "string",  "name": "_image_url", "type": "string"}
		],
		"name": "buyEarth",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

const (
	methodGetEarths = "getEarths"
	methodBuyEarth  = "buyEarth"
)

// earthRecord 对应合约中的 Earth 结构体，字段名与 ABI 组件一一对应
type earthRecord struct {
	Color    uint8
	Price    *big.Int
	ImageUrl string // 必须是 image_url 的驼峰形式，abi 解码按名称匹配
}

// ParseABI 解析 BuyEarth 合约 ABI
func ParseABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(BuyEarthABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse BuyEarth ABI: %w", err)
	}
	return parsed, nil
}

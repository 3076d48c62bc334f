package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var etherRat = new(big.Rat).SetInt(big.NewInt(params.Ether))

// ParseEther 把十进制的 ether 金额转换为 wei，例如 "0.001" -> 1e15。
// 金额必须为正数且精度不超过 wei。
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid ether amount %q", amount)
	}
	wei := r.Mul(r, etherRat)
	if !wei.IsInt() {
		return nil, fmt.Errorf("ether amount %q is more precise than 1 wei", amount)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("ether amount %q must be positive", amount)
	}
	return new(big.Int).Set(wei.Num()), nil
}

// FormatEther 把 wei 格式化为 ether 字符串，去掉末尾的 0
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether)).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

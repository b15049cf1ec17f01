package gateway

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/battle-monads/internal/shared/chain"
)

// Decimals do MON (token nativo da Monad testnet).
const Decimals = chain.NativeDecimals

var ErrInvalidAmount = errors.New("gateway: invalid amount")

// ToWei converte uma string decimal ("0.05") em wei sem passar por float.
// Mais de 18 casas decimais é rejeitado.
func ToWei(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	wei := d.Shift(Decimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%w: more than %d decimals", ErrInvalidAmount, Decimals)
	}
	return wei.BigInt(), nil
}

// FromWei formata wei em MON sem zeros à direita ("10000000000000000" -> "0.01").
func FromWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -Decimals).String()
}

// FromWeiFixed formata com casas fixas, para exibição ("0.0500").
func FromWeiFixed(wei *big.Int, places int32) string {
	if wei == nil {
		wei = new(big.Int)
	}
	return decimal.NewFromBigInt(wei, -Decimals).StringFixed(places)
}

package contract

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// PriceInfo é o par (preço com 8 casas, timestamp em segundos).
type PriceInfo struct {
	Price     *big.Int
	UpdatedAt *big.Int
}

// PriceFeeds lê os preços de referência ETH/USD e BTC/USD.
type PriceFeeds struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewPriceFeeds(addr common.Address, caller bind.ContractCaller) (*PriceFeeds, error) {
	parsed, err := abi.JSON(strings.NewReader(PriceFeedsABI))
	if err != nil {
		return nil, err
	}
	return &PriceFeeds{
		address:  addr,
		contract: bind.NewBoundContract(addr, parsed, caller, nil, nil),
	}, nil
}

func (p *PriceFeeds) Address() common.Address { return p.address }

func (p *PriceFeeds) ETHPrice(opts *bind.CallOpts) (PriceInfo, error) {
	return p.read(opts, "getETHPriceWithTimestamp")
}

func (p *PriceFeeds) BTCPrice(opts *bind.CallOpts) (PriceInfo, error) {
	return p.read(opts, "getBTCPriceWithTimestamp")
}

func (p *PriceFeeds) read(opts *bind.CallOpts, method string) (PriceInfo, error) {
	var info PriceInfo
	out := []interface{}{&info}
	if err := p.contract.Call(opts, &out, method); err != nil {
		return PriceInfo{}, err
	}
	return info, nil
}

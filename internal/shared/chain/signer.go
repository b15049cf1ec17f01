package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// KeystoreSigner assina transações com uma conta de keystore JSON local.
type KeystoreSigner struct {
	address    common.Address
	keyJSON    []byte
	passphrase string
	chainID    *big.Int
}

// LoadKeystoreSigner lê o arquivo de keystore; a chave só é decifrada ao assinar.
func LoadKeystoreSigner(path, passphrase string, chainID int64) (*KeystoreSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return &KeystoreSigner{
		address:    key.Address,
		keyJSON:    raw,
		passphrase: passphrase,
		chainID:    big.NewInt(chainID),
	}, nil
}

func (s *KeystoreSigner) Address() common.Address { return s.address }

func (s *KeystoreSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewTransactorWithChainID(strings.NewReader(string(s.keyJSON)), s.passphrase, s.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// KeystoreAddress lê o endereço de um keystore sem decifrar a chave.
func KeystoreAddress(path string) (common.Address, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, fmt.Errorf("read keystore: %w", err)
	}
	var k struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &k); err != nil {
		return common.Address{}, fmt.Errorf("parse keystore: %w", err)
	}
	if !common.IsHexAddress(k.Address) {
		return common.Address{}, fmt.Errorf("keystore address %q invalid", k.Address)
	}
	return common.HexToAddress(k.Address), nil
}

// WatchOnly é uma carteira só de leitura: tem endereço mas não assina.
type WatchOnly common.Address

func (w WatchOnly) Address() common.Address { return common.Address(w) }

func (w WatchOnly) TransactOpts(context.Context) (*bind.TransactOpts, error) {
	return nil, errors.New("watch-only wallet: authentication needed")
}

// battlectl lê e escreve no contrato BattleMonads pela linha de comando.
//
// Usage:
//
//	battlectl [--rpc URL] [--contract ADDR] battle 3
//	battlectl --keystore key.json --passphrase ... bet 3 eth 0.05
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/radieske/battle-monads/internal/shared/config"
)

var (
	app = cli.NewApp()

	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "endpoint JSON-RPC da chain (sobrescreve RPC_URL)",
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "endereço do BattleMonads (sobrescreve BATTLE_CONTRACT)",
	}
	priceFeedsFlag = cli.StringFlag{
		Name:  "pricefeeds",
		Usage: "endereço do PriceFeeds (sobrescreve PRICE_FEEDS_CONTRACT)",
	}
	chainIDFlag = cli.Int64Flag{
		Name:  "chain-id",
		Usage: "chain esperada (sobrescreve CHAIN_ID)",
	}
	keystoreFlag = cli.StringFlag{
		Name:  "keystore",
		Usage: "keystore JSON da carteira (sobrescreve WALLET_KEYSTORE)",
	}
	passphraseFlag = cli.StringFlag{
		Name:   "passphrase",
		Usage:  "senha do keystore",
		EnvVar: "WALLET_PASSPHRASE",
	}
	redisFlag = cli.StringFlag{
		Name:  "redis",
		Usage: "redis com o último snapshot de preços (sobrescreve REDIS_ADDR)",
	}
	userFlag = cli.StringFlag{
		Name:  "user",
		Usage: "carteira consultada (padrão: a carteira do keystore)",
	}
	targetFlag = cli.StringFlag{
		Name:  "target",
		Usage: "alvo do ataque: eth ou btc",
	}
	waitFlag = cli.BoolFlag{
		Name:  "wait",
		Usage: "aguarda o recibo da transação",
	}
)

func init() {
	app.Name = "battlectl"
	app.Usage = "battle monads: leitura e escrita on-chain"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		rpcFlag,
		contractFlag,
		priceFeedsFlag,
		chainIDFlag,
		keystoreFlag,
		passphraseFlag,
		redisFlag,
	}
	app.Commands = []cli.Command{
		{Name: "battle", Usage: "estado e métricas derivadas de uma batalha", ArgsUsage: "<battle-id>", Action: battleCmd},
		{Name: "monster", Usage: "monstro e HP", ArgsUsage: "<monster-id>", Action: monsterCmd},
		{Name: "comments", Usage: "mural de comentários e ataques", ArgsUsage: "<battle-id>", Action: commentsCmd},
		{Name: "bets", Usage: "apostas da carteira", ArgsUsage: "<battle-id>", Action: betsCmd, Flags: []cli.Flag{userFlag}},
		{Name: "prices", Usage: "preços ETH/BTC de referência", Action: pricesCmd},
		{Name: "constants", Usage: "constantes do contrato", Action: constantsCmd},
		{Name: "bet", Usage: "aposta MON em um lado", ArgsUsage: "<battle-id> <eth|btc> <amount>", Action: betCmd, Flags: []cli.Flag{waitFlag}},
		{Name: "comment", Usage: "comenta ou ataca (texto \"attack\" com --target)", ArgsUsage: "<battle-id> <content>", Action: commentCmd, Flags: []cli.Flag{targetFlag, waitFlag}},
		{Name: "claim", Usage: "resgata o prêmio", ArgsUsage: "<battle-id>", Action: claimCmd, Flags: []cli.Flag{waitFlag}},
		{Name: "end", Usage: "encerra a batalha", ArgsUsage: "<battle-id>", Action: endCmd, Flags: []cli.Flag{waitFlag}},
		{Name: "create", Usage: "cria uma nova batalha", Action: createCmd, Flags: []cli.Flag{waitFlag}},
		{Name: "tx", Usage: "estado de uma transação", ArgsUsage: "<tx-hash>", Action: txCmd},
		{Name: "network", Usage: "confere a chain do RPC", Action: networkCmd},
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings aplica as flags globais sobre a configuração de ambiente
func settings(ctx *cli.Context) config.Config {
	cfg := config.LoadFor("battlectl")
	if v := ctx.GlobalString(rpcFlag.Name); v != "" {
		cfg.RPCURL = v
	}
	if v := ctx.GlobalString(contractFlag.Name); v != "" {
		cfg.BattleContract = v
	}
	if v := ctx.GlobalString(priceFeedsFlag.Name); v != "" {
		cfg.PriceFeedsContract = v
	}
	if v := ctx.GlobalInt64(chainIDFlag.Name); v != 0 {
		cfg.ChainID = v
	}
	if v := ctx.GlobalString(keystoreFlag.Name); v != "" {
		cfg.WalletKeystore = v
	}
	if v := ctx.GlobalString(passphraseFlag.Name); v != "" {
		cfg.WalletPassphrase = v
	}
	if v := ctx.GlobalString(redisFlag.Name); v != "" {
		cfg.RedisAddr = v
	}
	return cfg
}

func argInt(ctx *cli.Context, i int, name string) (int64, error) {
	raw := ctx.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

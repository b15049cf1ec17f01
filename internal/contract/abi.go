// Package contract contém os ABIs e os wrappers tipados dos contratos
// BattleMonads e PriceFeeds implantados na Monad testnet.
// Os wrappers seguem o formato gerado pelo abigen, mas são mantidos à mão
// porque só uma fração do ABI é usada pelo cliente.
package contract

// BattleMonadsABI é o ABI do contrato BattleMonads
const BattleMonadsABI = `[
	{"type":"function","name":"BATTLE_DURATION","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"DEFAULT_HP","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"MIN_BET","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"MAX_BET","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"createBattle","inputs":[],"outputs":[{"name":"battleId","type":"uint256"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"bet","inputs":[
		{"name":"battleId","type":"uint256"},
		{"name":"side","type":"uint8"}
	],"outputs":[],"stateMutability":"payable"},
	{"type":"function","name":"addComment","inputs":[
		{"name":"battleId","type":"uint256"},
		{"name":"content","type":"string"}
	],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"endBattle","inputs":[{"name":"battleId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"claimReward","inputs":[{"name":"battleId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"getBattle","inputs":[{"name":"battleId","type":"uint256"}],"outputs":[
		{"name":"id","type":"uint256"},
		{"name":"ethMonsterId","type":"uint256"},
		{"name":"btcMonsterId","type":"uint256"},
		{"name":"startTime","type":"uint256"},
		{"name":"endTime","type":"uint256"},
		{"name":"isActive","type":"bool"},
		{"name":"isSettled","type":"bool"},
		{"name":"winner","type":"uint8"},
		{"name":"ethPool","type":"uint256"},
		{"name":"btcPool","type":"uint256"}
	],"stateMutability":"view"},
	{"type":"function","name":"monsters","inputs":[{"name":"","type":"uint256"}],"outputs":[
		{"name":"id","type":"uint256"},
		{"name":"monsterType","type":"uint8"},
		{"name":"birthPrice","type":"uint256"},
		{"name":"currentHP","type":"uint256"},
		{"name":"maxHP","type":"uint256"},
		{"name":"createTime","type":"uint256"},
		{"name":"exists","type":"bool"}
	],"stateMutability":"view"},
	{"type":"function","name":"getUserBets","inputs":[
		{"name":"battleId","type":"uint256"},
		{"name":"user","type":"address"}
	],"outputs":[
		{"name":"ethBet","type":"uint256"},
		{"name":"btcBet","type":"uint256"}
	],"stateMutability":"view"},
	{"type":"function","name":"getBattleComments","inputs":[{"name":"battleId","type":"uint256"}],"outputs":[
		{"name":"","type":"tuple[]","components":[
			{"name":"id","type":"uint256"},
			{"name":"battleId","type":"uint256"},
			{"name":"user","type":"address"},
			{"name":"content","type":"string"},
			{"name":"timestamp","type":"uint256"},
			{"name":"isAttack","type":"bool"},
			{"name":"attackTarget","type":"uint8"}
		]}
	],"stateMutability":"view"},
	{"type":"function","name":"canUserComment","inputs":[
		{"name":"battleId","type":"uint256"},
		{"name":"user","type":"address"}
	],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
	{"type":"event","name":"BattleCreated","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"ethMonsterId","type":"uint256","indexed":false},
		{"name":"btcMonsterId","type":"uint256","indexed":false},
		{"name":"ethBirthPrice","type":"uint256","indexed":false},
		{"name":"btcBirthPrice","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"BetPlaced","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"side","type":"uint8","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"CommentAdded","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"content","type":"string","indexed":false},
		{"name":"isAttack","type":"bool","indexed":false},
		{"name":"attackTarget","type":"uint8","indexed":false}
	]},
	{"type":"event","name":"MonsterAttacked","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"target","type":"uint8","indexed":false},
		{"name":"damage","type":"uint256","indexed":false},
		{"name":"newHP","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"BattleEnded","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"winner","type":"uint8","indexed":false},
		{"name":"ethFinalHP","type":"uint256","indexed":false},
		{"name":"btcFinalHP","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"RewardClaimed","anonymous":false,"inputs":[
		{"name":"battleId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]}
]`

// PriceFeedsABI é o ABI do agregador de preços (Chainlink, 8 casas decimais)
const PriceFeedsABI = `[
	{"type":"function","name":"getETHPriceWithTimestamp","inputs":[],"outputs":[
		{"name":"price","type":"int256"},
		{"name":"updatedAt","type":"uint256"}
	],"stateMutability":"view"},
	{"type":"function","name":"getBTCPriceWithTimestamp","inputs":[],"outputs":[
		{"name":"price","type":"int256"},
		{"name":"updatedAt","type":"uint256"}
	],"stateMutability":"view"}
]`

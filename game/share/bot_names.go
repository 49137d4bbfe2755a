package share

import "math/rand"

var botNames = []string{
	"Juan el Duro",
	"María la Campeona",
	"Pedro Capicúa",
	"Ana Dominó",
	"Carlos el Tranque",
	"Rosa la Maestra",
	"Miguel Doble-6",
	"Carmen la Rápida",
	"Luis el Pensador",
	"Sofia la Estratega",
}

// BotName 随机一个机器人昵称
func BotName() string {
	return botNames[rand.Intn(len(botNames))]
}

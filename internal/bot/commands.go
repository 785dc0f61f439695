package bot

import "strings"

// Команды бота. Ключ — нормализованное имя после префикса.
const (
	cmdCheckin      = "checkin"
	cmdStreak       = "streak"
	cmdRewards      = "rewards"
	cmdClaim        = "claim"
	cmdTier         = "tier"
	cmdCalendar     = "calendar"
	cmdBalance      = "balance"
	cmdTransactions = "transactions"
	cmdHelp         = "help"
)

var aliases = map[string]string{
	"отметиться": cmdCheckin,
	"отметка":    cmdCheckin,
	"checkin":    cmdCheckin,

	"огонек": cmdStreak,
	"огонёк": cmdStreak,
	"streak": cmdStreak,

	"награды": cmdRewards,
	"rewards": cmdRewards,

	"награда": cmdTier,
	"tier":    cmdTier,

	"забрать": cmdClaim,
	"claim":   cmdClaim,

	"календарь": cmdCalendar,
	"calendar":  cmdCalendar,

	"пленки":  cmdBalance,
	"плёнки":  cmdBalance,
	"баланс":  cmdBalance,
	"balance": cmdBalance,

	"транзакции":   cmdTransactions,
	"transactions": cmdTransactions,

	"помощь": cmdHelp,
	"help":   cmdHelp,
	"start":  cmdHelp,
}

const helpText = `🔥 Огонек — ежедневные отметки и награды за серию

!отметиться — отметиться за сегодня
!огонек — текущая серия и следующая цель
!награды — каталог наград
!награда <номер> — хватает ли огонька на награду
!забрать <номер> — забрать награду
!календарь [ГГГГ-ММ] — отметки за месяц
!пленки — баланс
!транзакции — последние операции`

// CommandParser парсит команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// "/start@my_bot" превращается в "start". Неизвестная команда возвращается как есть,
// с isCommand == true: решать, отвечать ли на неё, будет маршрутизатор.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	if canonical, ok := aliases[command]; ok {
		command = canonical
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}

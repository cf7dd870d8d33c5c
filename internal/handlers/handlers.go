// Package handlers содержит обработчики команд.
package handlers

import (
	"strings"

	"hookbot/internal/config"
	"hookbot/internal/external/telegram"
	"hookbot/internal/middleware"
	"hookbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handlers содержит все обработчики команд
type Handlers struct {
	services   *service.Services
	config     *config.Config
	client     *telegram.Client
	middleware *middleware.Middleware
	logger     *zap.Logger
}

var _ telegram.RouterInterface = (*Handlers)(nil)

// New создает новый экземпляр обработчиков
func New(services *service.Services, cfg *config.Config, client *telegram.Client, mw *middleware.Middleware, logger *zap.Logger) *Handlers {
	return &Handlers{
		services:   services,
		config:     cfg,
		client:     client,
		middleware: mw,
		logger:     logger,
	}
}

// HandleUpdate обрабатывает одно обновление через цепочку middleware
func (h *Handlers) HandleUpdate(update tgbotapi.Update) {
	h.middleware.ProcessWithMiddleware(update, h.dispatch)
}

// dispatch разбирает команду с настроенным префиксом и вызывает обработчик
func (h *Handlers) dispatch(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	command, args, ok := h.parseCommand(update.Message.Text)
	if !ok {
		return
	}

	switch command {
	case "start":
		h.Start(update.Message)
	case "help":
		h.Help(update.Message)
	case "check":
		h.Check(update.Message)
	case "playlist", "pl":
		h.Playlist(update.Message)
	case "track":
		h.Track(update.Message, args)
	case "interval":
		h.Interval(update.Message, args)
	case "prefix":
		h.Prefix(update.Message, args)
	default:
		h.logger.Debug("Unknown command",
			zap.String("command", command),
			zap.Int64("chat_id", update.Message.Chat.ID))
	}
}

// parseCommand выделяет команду и аргументы из текста сообщения.
// Командой считается текст, начинающийся с настроенного префикса.
func (h *Handlers) parseCommand(text string) (string, []string, bool) {
	prefix := h.config.GetCommandPrefix()
	if !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}

	// Убираем @botname из команд вида /check@hookbot
	command := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	return command, fields[1:], true
}

// RegisterBotCommands регистрирует команды бота
func (h *Handlers) RegisterBotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "help", Description: "Показать справку"},
		{Command: "check", Description: "Проверить плейлист на изменения"},
		{Command: "playlist", Description: "Ссылка на отслеживаемый плейлист"},
		{Command: "track", Description: "Показать трек плейлиста по номеру"},
		{Command: "interval", Description: "Изменить интервал проверок (минуты)"},
		{Command: "prefix", Description: "Изменить префикс команд"},
	}
}

// sendMessage отправляет сообщение в чат
func (h *Handlers) sendMessage(chatID int64, text string) {
	if err := h.client.SendMessage(chatID, text); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// isAdmin проверяет, является ли пользователь администратором.
// Без настроенного ADMIN_USERNAME бот считается личным и доступен всем.
func (h *Handlers) isAdmin(user *tgbotapi.User) bool {
	if h.config.AdminUsername == "" {
		return true
	}

	if user == nil || user.UserName == "" {
		return false
	}

	return user.UserName == h.config.AdminUsername
}

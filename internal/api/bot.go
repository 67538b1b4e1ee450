package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "road-inspector/internal/application"
	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я слежу за дефектами дорожного покрытия.

📸 Отправьте фото — я найду на нём дефекты и занесу их в журнал.
🔔 Новые дефекты из видео и с камеры будут приходить сюда.

/help — список команд`

	msgHelp = `📋 Команды:
/camera — запустить камеру
/video <путь> — обработать видеофайл
/image <путь> — обработать изображение (или просто пришлите фото)
/stop — остановить обработку
/save — встроить миниатюры в журнал
/threshold <0.1–1.0> — порог уверенности
/ports — доступные последовательные порты
/connect <порт> [скорость] — подключить GPS
/disconnect — отключить GPS
/status — текущее состояние
/mute, /unmute — уведомления о дефектах`

	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendPhoto       = "📸 Пришлите фото или используйте /help."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingError = "⚠️ Не удалось обработать изображение."
	msgMuted           = "🔕 Уведомления отключены."
	msgUnmuted         = "🔔 Уведомления включены."

	notifyBuffer = 32
)

// Controls команды слоя представления
type Controls interface {
	SetThreshold(ctx context.Context, v float64) (float64, error)
	OpenImage(ctx context.Context, path string) error
	OpenVideo(ctx context.Context, path string) error
	StartCamera(ctx context.Context) error
	Stop(ctx context.Context) error
	SaveToLog(ctx context.Context) error
	Connect(ctx context.Context, port string, baud int) error
	Disconnect(ctx context.Context) error
	Ports(ctx context.Context) ([]string, error)
	Status(ctx context.Context) (app.Status, error)
}

// Bot представляет Telegram-бота: пульт управления и канал уведомлений
type Bot struct {
	port.NopObserver

	api      *tgbotapi.BotAPI
	controls Controls
	subs     *app.SubscriptionService
	notify   chan entity.DetectionEvent
	photoDir string
	log      *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, controls Controls, subs *app.SubscriptionService, photoDir string, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, controls, subs, photoDir, log)
	b.log.Info("authorized on account", "username", api.Self.UserName)
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, controls Controls, subs *app.SubscriptionService, photoDir string, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		api:      api,
		controls: controls,
		subs:     subs,
		notify:   make(chan entity.DetectionEvent, notifyBuffer),
		photoDir: photoDir,
		log:      log.With("component", "telegram"),
	}
}

// OnDefectLogged ставит событие в очередь уведомлений, не блокируя цикл обработки.
func (b *Bot) OnDefectLogged(event entity.DetectionEvent) {
	select {
	case b.notify <- event:
	default:
		b.log.Warn("notification queue is full, event dropped", "defect", event.DefectType)
	}
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-b.notify:
			b.broadcast(ctx, event)
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		b.sendMessage(msg.Chat.ID, b.execute(ctx, msg.Command(), msg.CommandArguments(), userID, msg.Chat.ID))
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// execute выполняет команду и возвращает текст ответа
func (b *Bot) execute(ctx context.Context, command, args string, userID, chatID int64) string {
	args = strings.TrimSpace(args)

	switch command {
	case "start", "unmute":
		if _, err := b.subs.Subscribe(ctx, userID, chatID); err != nil {
			return errorReply(err)
		}
		if command == "start" {
			return msgStart
		}
		return msgUnmuted

	case "mute":
		if _, err := b.subs.Mute(ctx, userID, chatID); err != nil {
			return errorReply(err)
		}
		return msgMuted

	case "help":
		return msgHelp

	case "camera":
		if err := b.controls.StartCamera(ctx); err != nil {
			return errorReply(err)
		}
		return "🎥 Камера запущена."

	case "video":
		if args == "" {
			return "Укажите путь: /video <путь>"
		}
		if err := b.controls.OpenVideo(ctx, args); err != nil {
			return errorReply(err)
		}
		return "🎞 Обработка видео запущена."

	case "image":
		if args == "" {
			return "Укажите путь: /image <путь>"
		}
		if err := b.controls.OpenImage(ctx, args); err != nil {
			return errorReply(err)
		}
		return "✅ Изображение обработано."

	case "stop":
		if err := b.controls.Stop(ctx); err != nil {
			return errorReply(err)
		}
		return "⏹ Обработка остановлена, журнал сохранён."

	case "save":
		if err := b.controls.SaveToLog(ctx); err != nil {
			return errorReply(err)
		}
		return "💾 Миниатюры встроены в журнал."

	case "threshold":
		v, err := strconv.ParseFloat(args, 64)
		if err != nil {
			return "Укажите число: /threshold 0.5"
		}
		applied, err := b.controls.SetThreshold(ctx, v)
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🎚 Порог: %.2f", applied)

	case "ports":
		ports, err := b.controls.Ports(ctx)
		if err != nil {
			return errorReply(err)
		}
		if len(ports) == 0 {
			return "Последовательные порты не найдены."
		}
		return "🔌 Порты:\n" + strings.Join(ports, "\n")

	case "connect":
		name, baud, err := parseConnectArgs(args)
		if err != nil {
			return errorReply(err)
		}
		if err := b.controls.Connect(ctx, name, baud); err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("🛰 GPS подключён: %s, %d бод.", name, baud)

	case "disconnect":
		if err := b.controls.Disconnect(ctx); err != nil {
			return errorReply(err)
		}
		return "GPS отключён."

	case "status":
		st, err := b.controls.Status(ctx)
		if err != nil {
			return errorReply(err)
		}
		return formatStatus(st)

	default:
		return msgUnknownCommand
	}
}

// handlePhoto скачивает фото и обрабатывает его как изображение
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	path, err := b.downloadFile(photo.FileID)
	if err != nil {
		b.log.Error("download photo", "err", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	defer os.Remove(path)

	if err := b.controls.OpenImage(ctx, path); err != nil {
		b.log.Error("process photo", "err", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	b.sendMessage(msg.Chat.ID, "✅ Изображение обработано.")
}

// downloadFile скачивает файл из Telegram во временный файл
func (b *Bot) downloadFile(fileID string) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(b.photoDir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	out, err := os.CreateTemp(b.photoDir, "telegram-*"+filepath.Ext(file.FilePath))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("read file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// broadcast рассылает событие всем подписчикам
func (b *Bot) broadcast(ctx context.Context, event entity.DetectionEvent) {
	chats, err := b.subs.Recipients(ctx)
	if err != nil {
		b.log.Error("list subscribers", "err", err)
		return
	}

	caption := formatEvent(event)
	for _, chatID := range chats {
		var c tgbotapi.Chattable = tgbotapi.NewMessage(chatID, caption)
		if event.ThumbnailPath != "" {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(event.ThumbnailPath))
			photo.Caption = caption
			c = photo
		}
		if _, err := b.api.Send(c); err != nil {
			b.log.Error("send notification", "chat", chatID, "err", err)
		}
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat", chatID, "err", err)
	}
}

func parseConnectArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		return fields[0], 9600, nil
	case 2:
		baud, err := strconv.Atoi(fields[1])
		if err != nil || baud <= 0 {
			return "", 0, fmt.Errorf("invalid baud rate %q", fields[1])
		}
		return fields[0], baud, nil
	default:
		return "", 0, fmt.Errorf("usage: /connect <port> [baud]")
	}
}

func formatStatus(st app.Status) string {
	gps := "отключён"
	if st.GpsConnected {
		gps = "подключён"
	}
	text := fmt.Sprintf("📊 Состояние: %s\n🎚 Порог: %.2f\n🛰 GPS (%s): %s", st.State, st.Threshold, gps, st.Gps)
	if st.SessionID != "" {
		text += "\n🆔 Сессия: " + st.SessionID
	}
	return text
}

func formatEvent(event entity.DetectionEvent) string {
	return fmt.Sprintf("🚧 %s\n🕒 %s\n🛰 %s", event.DefectType, event.FormattedTimestamp(), event.Gps)
}

func errorReply(err error) string {
	return "⚠️ " + err.Error()
}

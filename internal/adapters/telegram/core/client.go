// Package core содержит оболочки вокруг gotd для создания клиента и авторизации.
// Агент работает только с готовой сессией (неавторизованный старт — ошибка),
// интерактивный вход нужен лишь генератору сессий.
package core

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/support/version"
)

// ErrNotAuthorized — сессия не авторизована (пустой или отозванный SESSION_STRING).
var ErrNotAuthorized = errors.New("session is not authorized")

// Options описывает параметры MTProto-клиента, которые различаются у агента и генератора.
type Options struct {
	Storage       session.Storage
	UpdateHandler telegram.UpdateHandler
	Middlewares   []telegram.Middleware
	TestDC        bool
}

// DeviceConfig — «паспорт» устройства, который видит пользователь в списке сессий.
func DeviceConfig() telegram.DeviceConfig {
	return telegram.DeviceConfig{
		DeviceModel:   "Cloud Server",
		SystemVersion: "Linux",
		AppVersion:    version.Version,
	}
}

// New создаёт клиент gotd. Сеть не трогает до client.Run.
func New(apiID int, apiHash string, opts Options) *telegram.Client {
	options := telegram.Options{
		SessionStorage: opts.Storage,
		UpdateHandler:  opts.UpdateHandler,
		Middlewares:    opts.Middlewares,
		Device:         DeviceConfig(),
	}
	// Для тестовых окружений используем DC тестового стенда Telegram.
	if opts.TestDC {
		options.DCList = dcs.Test()
	}
	return telegram.NewClient(apiID, apiHash, options)
}

// EnsureAuthorized проверяет, что сессия уже авторизована, и возвращает self.
// Интерактива нет: агент в облаке не может спросить код.
func EnsureAuthorized(ctx context.Context, client *telegram.Client) (*tg.User, error) {
	status, err := client.Auth().Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "auth status")
	}
	if !status.Authorized {
		return nil, ErrNotAuthorized
	}
	return self(ctx, client)
}

// Login выполняет интерактивную авторизацию, если она нужна:
//  1. проверяет текущий статус сессии (Auth.Status);
//  2. если не авторизованы — запускает auth.Flow с TerminalAuthenticator.
func Login(ctx context.Context, client *telegram.Client, phone string) (*tg.User, error) {
	flow := auth.NewFlow(
		TerminalAuthenticator{PhoneNumber: phone},
		auth.SendCodeOptions{},
	)
	if err := client.Auth().IfNecessary(ctx, flow); err != nil {
		return nil, errors.Wrap(err, "auth")
	}
	return self(ctx, client)
}

func self(ctx context.Context, client *telegram.Client) (*tg.User, error) {
	me, err := client.Self(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get self")
	}
	logger.Info("Logged in as:",
		zap.String("FirstName", me.FirstName),
		zap.String("LastName", me.LastName),
		zap.String("Username", me.Username),
		zap.Int64("ID", me.ID),
	)
	return me, nil
}

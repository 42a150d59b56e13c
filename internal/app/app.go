// Package app — верхний уровень сборки агента-пересыльщика.
// Здесь связываются конфигурация, сетевой слой (gotd/telegram), диспетчер апдейтов,
// журнал команд и liveness-сервер. Отсюда стартует цикл обработки событий
// и обеспечивается корректный shutdown.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/telegram"
	tgupdates "github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"golang.org/x/time/rate"

	"telegram-forwarder/internal/adapters/telegram/core"
	"telegram-forwarder/internal/adapters/telegram/messenger"
	"telegram-forwarder/internal/adapters/web"
	"telegram-forwarder/internal/domain/logsink"
	domainupdates "telegram-forwarder/internal/domain/updates"
	"telegram-forwarder/internal/infra/config"
	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/telegram/peersmgr"
	"telegram-forwarder/internal/infra/telegram/session"
	"telegram-forwarder/internal/support/debug"
)

// lazyUpdateHandler — это обёртка, которая позволяет отложить установку
// реального обработчика апдейтов, разрывая цикл инициализации
// (клиент нужен менеджеру пиров, а менеджер пиров — обработчику апдейтов).
type lazyUpdateHandler struct {
	mu      sync.RWMutex
	handler telegram.UpdateHandler
}

func (h *lazyUpdateHandler) Handle(ctx context.Context, u tg.UpdatesClass) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.handler != nil {
		return h.handler.Handle(ctx, u)
	}
	return nil
}

func (h *lazyUpdateHandler) set(realHandler telegram.UpdateHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = realHandler
}

// dumpHandler печатает сырые апдейты в debug-режиме и передаёт их дальше.
type dumpHandler struct {
	next telegram.UpdateHandler
}

func (h dumpHandler) Handle(ctx context.Context, u tg.UpdatesClass) error {
	debug.Dump("update", u)
	return h.next.Handle(ctx, u)
}

// App агрегирует зависимости агента и управляет их связью.
type App struct {
	env        config.EnvConfig
	mainCtx    context.Context    // Контекст жизненного цикла приложения.
	mainCancel context.CancelFunc // Инициирует отмену mainCtx.
	handlers   *domainupdates.Handlers
	sink       *logsink.Sink
	runner     *Runner
	updMgr     *tgupdates.Manager // Менеджер апдейтов gotd: поток событий и локальное состояние.
	peers      *peersmgr.Service  // Менеджер пиров + persist storage.
	waiter     *floodwait.Waiter  // Middleware для обработки FLOOD_WAIT.
}

// NewApp создаёт пустой каркас приложения. Фактическая сборка выполняется в Run().
func NewApp(mainCtx context.Context, mainCancel context.CancelFunc, env config.EnvConfig) *App {
	return &App{
		env:        env,
		mainCtx:    mainCtx,
		mainCancel: mainCancel,
	}
}

// Run собирает клиента, менеджер апдейтов, обработчики команд и liveness-сервер,
// затем передаёт управление Runner. Блокируется до остановки приложения.
func (a *App) Run() error {
	logger.Info("Starting Cloud Bot...")

	sessionStore, err := session.NewStringStorage(a.mainCtx, a.env.SessionString)
	if err != nil {
		return fmt.Errorf("decode SESSION_STRING: %w", err)
	}

	dispatcher := tg.NewUpdateDispatcher()
	lazyHandler := &lazyUpdateHandler{}
	a.waiter = floodwait.NewWaiter()

	client := core.New(a.env.APIID, a.env.APIHash, core.Options{
		Storage:       sessionStore,
		UpdateHandler: lazyHandler,
		Middlewares: []telegram.Middleware{
			a.waiter,
			ratelimit.New(
				rate.Limit(a.env.ThrottleRPS),
				a.env.ThrottleRPS*2, //nolint:mnd // burst = 2*rate
			),
		},
		TestDC: a.env.TestDC,
	})

	peersSvc, err := peersmgr.New(client.API(), a.env.PeersCacheFile)
	if err != nil {
		return fmt.Errorf("init peers manager: %w", err)
	}
	if err = peersSvc.LoadFromStorage(a.mainCtx); err != nil {
		_ = peersSvc.Close()
		return fmt.Errorf("load peers storage: %w", err)
	}
	a.peers = peersSvc

	// Состояние апдейтов лежит в том же файле bbolt, что и пиры.
	a.updMgr = tgupdates.New(tgupdates.Config{
		Handler:      dispatcher,
		Storage:      peersSvc.StateStorage(),
		AccessHasher: peersSvc.Mgr,
	})

	var realHandler telegram.UpdateHandler = contribstorage.UpdateHook(peersSvc.Mgr.UpdateHook(a.updMgr), peersSvc.Store())
	if debug.Enabled() {
		realHandler = dumpHandler{next: realHandler}
	}
	lazyHandler.set(realHandler)

	msgr := messenger.New(client.API(), peersSvc)
	state := logsink.NewState(a.env.LoggingEnabled)
	a.sink = logsink.New(state, msgr, a.env.LogChat)

	a.handlers = domainupdates.NewHandlers(msgr, a.sink, state, domainupdates.Options{
		DefaultDestination: a.env.DefaultDestination,
		ReactionEmoji:      a.env.ReactionEmoji,
	})

	// Маршрутизация апдейтов на обработчики команд.
	dispatcher.OnNewMessage(a.handlers.OnNewMessage)
	dispatcher.OnNewChannelMessage(a.handlers.OnNewChannelMessage)

	var webServer *web.Server
	if a.env.WebServerEnable {
		webServer = web.NewServer(web.Addr(a.env.Port))
	}

	a.runner = NewRunner(a.mainCtx, a.mainCancel, client, a.peers, a.sink, webServer)
	return a.runner.Run(a.waiter, a.updMgr)
}

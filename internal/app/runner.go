package app

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/td/telegram"
	tgupdates "github.com/gotd/td/telegram/updates"

	"telegram-forwarder/internal/adapters/telegram/core"
	"telegram-forwarder/internal/adapters/web"
	"telegram-forwarder/internal/domain/logsink"
	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/telegram/peersmgr"
)

// Текст стартовой заметки в лог-чате.
const (
	StartupTitle = "🚀 Cloud Bot v2 Started!"
	StartupBody  = "Server is listening."
)

const webServerShutdownTimeout = 10 * time.Second

// Runner инкапсулирует сценарий запуска и остановки агента:
//   - проверка сессии и идентификация текущего пользователя (self);
//   - запуск liveness-сервера и менеджера апдейтов в правильном порядке;
//   - корректное завершение: сначала сервисы, затем MTProto-движок.
type Runner struct {
	client        *telegram.Client
	peers         *peersmgr.Service
	sink          *logsink.Sink
	webServer     *web.Server        // nil, если WEB_SERVER_ENABLE=false.
	mainCtx       context.Context    // Внешний контекст процесса: отменяется по Ctrl+C/сигналам.
	mainCancel    context.CancelFunc // Инициирует общий shutdown (например, при падении updates.Manager).
	updatesWG     sync.WaitGroup
	updatesCancel context.CancelFunc
	webWG         sync.WaitGroup
	stopOnce      sync.Once
	svcMu         sync.Mutex // защищает stopped, updatesCancel и Go() у WaitGroup
	stopped       bool       // после stopAllServices новые сервисы не стартуют
}

// NewRunner подготавливает Runner с переданными зависимостями.
func NewRunner(
	mainCtx context.Context,
	mainCancel context.CancelFunc,
	client *telegram.Client,
	peers *peersmgr.Service,
	sink *logsink.Sink,
	webServer *web.Server,
) *Runner {
	return &Runner{
		mainCtx:    mainCtx,
		mainCancel: mainCancel,
		client:     client,
		peers:      peers,
		sink:       sink,
		webServer:  webServer,
	}
}

// Run — главный цикл агента. Блокируется до завершения клиентского контекста.
// MTProto-движок живёт в отдельном контексте, чтобы сервисы успели
// остановиться до гашения сетевого уровня.
func (r *Runner) Run(waiter *floodwait.Waiter, updmgr *tgupdates.Manager) error {
	clientCtx, clientCancel := context.WithCancel(context.Background())
	defer clientCancel()

	var shutdownWG sync.WaitGroup
	shutdownWG.Go(func() {
		<-r.mainCtx.Done()
		logger.Debug("Shutdown signal received, stopping runner...")
		r.stopAllServices()
		clientCancel()
	})

	err := waiter.Run(clientCtx, func(ctx context.Context) error {
		return r.client.Run(ctx, func(ctx context.Context) error {
			self, err := core.EnsureAuthorized(ctx, r.client)
			if err != nil {
				return err
			}
			logger.Info("Telegram Client Online")

			if err = r.peers.Mgr.Init(ctx); err != nil {
				logger.Warnf("failed to init peers manager: %v", err)
			}

			r.startWebServer()

			if err = r.peers.WarmupIfEmpty(ctx); err != nil {
				logger.Warnf("failed to warm up peers: %v", err)
			}

			r.startUpdates(ctx, updmgr, self.ID)

			<-ctx.Done()
			return ctx.Err()
		})
	})

	// Ошибка до сигнала (например, неавторизованная сессия) тоже должна
	// освободить bbolt и порт.
	r.mainCancel()
	shutdownWG.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startWebServer запускает liveness-сервер. false — сервер выключен или
// остановка уже началась.
func (r *Runner) startWebServer() bool {
	if r.webServer == nil {
		return false
	}
	r.svcMu.Lock()
	defer r.svcMu.Unlock()
	if r.stopped {
		return false
	}
	logger.Debug("starting service web_server")
	r.webWG.Go(func() {
		if err := r.webServer.Start(); err != nil {
			logger.Errorf("web server error: %v", err)
		}
	})
	return true
}

// startUpdates запускает updates.Manager. false — остановка уже началась.
func (r *Runner) startUpdates(ctx context.Context, updmgr *tgupdates.Manager, selfID int64) bool {
	r.svcMu.Lock()
	defer r.svcMu.Unlock()
	if r.stopped {
		return false
	}
	logger.Debug("starting service updates_manager")
	updatesCtx, updatesCancel := context.WithCancel(ctx)
	r.updatesCancel = updatesCancel
	r.updatesWG.Go(func() {
		mgrErr := updmgr.Run(updatesCtx, r.client.API(), selfID, tgupdates.AuthOptions{
			OnStart: r.handleUpdatesManagerStart,
		})
		if mgrErr != nil && !errors.Is(mgrErr, context.Canceled) {
			logger.Errorf("updmgr.Run return: %v", mgrErr)
			r.mainCancel()
		}
		logger.Debugf("updates_manager service: Run finished (err=%v)", mgrErr)
	})
	return true
}

// stopAllServices останавливает сервисы в обратном порядке. Идемпотентна.
func (r *Runner) stopAllServices() {
	r.stopOnce.Do(func() {
		// После stopped=true под svcMu новых Go() не будет, Wait безопасен.
		r.svcMu.Lock()
		r.stopped = true
		updatesCancel := r.updatesCancel
		r.svcMu.Unlock()

		logger.Debug("stopping service updates_manager")
		if updatesCancel != nil {
			updatesCancel()
		}
		r.updatesWG.Wait()

		if r.webServer != nil {
			logger.Debug("stopping service web_server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), webServerShutdownTimeout)
			if err := r.webServer.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("failed to stop web_server: %v", err)
			}
			cancel()
			r.webWG.Wait()
		}

		if r.peers != nil {
			logger.Debug("stopping service peers_manager")
			if err := r.peers.Close(); err != nil {
				logger.Errorf("failed to stop peers_manager: %v", err)
			}
		}
	})
}

// handleUpdatesManagerStart вызывается updates.Manager, когда подписка на апдейты готова:
// обработчики уже зарегистрированы, можно сообщить о запуске в лог-чат.
func (r *Runner) handleUpdatesManagerStart(ctx context.Context) {
	logger.Debug("Updates manager started")
	r.sink.Announce(ctx, StartupTitle, StartupBody)
}

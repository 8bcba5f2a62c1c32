package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *App) runServices(ctx context.Context, deps *Dependencies) error {
	g, gCtx := errgroup.WithContext(ctx)

	if err := deps.Admin.SeedOperators(gCtx); err != nil {
		a.Log.Warn("failed to seed operators", "error", err)
	}

	g.Go(func() error {
		a.Log.Info("starting http server",
			"host", a.Cfg.Server.Host,
			"port", a.Cfg.Server.Port)

		err := deps.HTTPServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return deps.Dispatcher.Run(gCtx)
	})

	g.Go(func() error {
		return deps.Sessions.Run(gCtx)
	})

	g.Go(func() error {
		a.Log.Info("starting job scheduler")
		return deps.JobScheduler.Run(gCtx)
	})

	// Telegram Updates: либо Webhook (prod), либо Polling (local dev)
	if deps.TelegramPoller != nil {
		g.Go(func() error {
			return a.runPolling(gCtx, deps)
		})
	} else {
		a.Log.Info("telegram updates mode: webhook (production)",
			"webhook_url", a.Cfg.Telegram.WebhookURL)
	}

	if deps.KafkaConsumer != nil {
		g.Go(func() error {
			a.Log.Info("starting kafka consumer", "topic", a.Cfg.Kafka.Topic)
			return deps.KafkaConsumer.Start(gCtx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.Log.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := deps.HTTPServer.Shutdown(shutdownCtx); err != nil {
			a.Log.Error("failed to shutdown http server", "error", err)
		}

		// после остановки http новых событий нет
		deps.Bus.Close()

		return nil
	})

	err := g.Wait()

	// диспетчер уже дождался обработчиков, им больше нечего публиковать
	if deps.KafkaProducer != nil {
		if cerr := deps.KafkaProducer.Close(); cerr != nil {
			a.Log.Error("failed to close kafka producer", "error", cerr)
		}
	}

	if deps.Cache != nil {
		if cerr := deps.Cache.Close(); cerr != nil {
			a.Log.Error("failed to close cache", "error", cerr)
		}
	}
	if cerr := deps.DB.Close(); cerr != nil {
		a.Log.Error("failed to close database", "error", cerr)
	}

	if err != nil {
		a.Log.Error("application error", "error", err)
		return err
	}

	a.Log.Info("application shutdown completed")
	return nil
}

// runPolling запускает polling для локальной разработки
func (a *App) runPolling(ctx context.Context, deps *Dependencies) error {
	// Удаляем webhook перед запуском polling
	deleteCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := deps.TelegramClient.DeleteWebhook(deleteCtx); err != nil {
		a.Log.Warn("failed to delete webhook, continuing anyway", "error", err)
	} else {
		a.Log.Info("webhook deleted successfully, starting polling")
	}

	return deps.TelegramPoller.Start(ctx)
}

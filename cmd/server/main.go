package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kirana-oms/internal/api"
	"kirana-oms/internal/catalog"
	"kirana-oms/internal/config"
	"kirana-oms/internal/db"
	"kirana-oms/internal/events"
	"kirana-oms/internal/fulfillment"
	"kirana-oms/internal/inventory"
	"kirana-oms/internal/logger"
	"kirana-oms/internal/notify"
	"kirana-oms/internal/order"
	"kirana-oms/internal/outbox"
	"kirana-oms/internal/payment"
	"kirana-oms/internal/reconcile"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	catalogRepo := catalog.NewRepository(database)

	invRepo := inventory.NewRepository(database)
	invSvc := inventory.NewService(invRepo)

	gateway := payment.NewRazorpayGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewaySecret)
	paymentRepo := payment.NewRepository(database)

	fulfillClient := fulfillment.NewClient(cfg.FulfillmentBaseURL, cfg.FulfillmentEmail, cfg.FulfillmentPassword)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, catalogRepo, invSvc, gateway, paymentRepo, fulfillClient, order.Config{
		GatewaySecret: cfg.GatewaySecret,
		CODTokenMinor: cfg.CODTokenMinor,
		Currency:      "INR",
	})

	publisher, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.OrderExchange)
	if err != nil {
		logger.L().Fatal("failed to connect to message broker", zap.Error(err))
	}
	defer publisher.Close()

	sms := notify.NewHTTPSMSSender(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSender)
	email := notify.NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outboxRepo := outbox.NewRepository(database)
	outboxWorker := outbox.NewWorker(outboxRepo, sms, email, publisher, cfg.OutboxDispatchInterval)
	go outboxWorker.Run(ctx)

	clock := reconcile.NewClock()
	paymentJob := reconcile.NewPaymentReconciler(orderRepo, orderSvc, gateway, cfg.PendingPaymentAge)
	go reconcile.NewWorker(paymentJob, cfg.PaymentReconcileInterval, clock).Run(ctx)

	fulfillJob := reconcile.NewFulfillmentReconciler(orderRepo, orderSvc, fulfillClient)
	go reconcile.NewWorker(fulfillJob, cfg.FulfillmentReconcileInterval, clock).Run(ctx)

	handler := api.NewHandler(orderSvc, invSvc)
	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: api.NewRouter(handler, cfg.AdminJWTSecret),
	}

	go func() {
		logger.L().Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("graceful shutdown failed", zap.Error(err))
	}
}

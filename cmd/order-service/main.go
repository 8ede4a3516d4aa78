package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain/port"
	"storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/infrastructure/adapter"
	"storefront/internal/service/order/interfaces"
	"storefront/internal/service/order/workflow"
	"storefront/internal/service/order/workflow/rule"
)

const serviceName = "order-service"

func main() {
	cfg := bootstrap.MustLoadConfig()
	tracer := otel.Tracer(serviceName)

	// 1. 基础设施
	db, err := infrastructure.NewMysqlDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize mysql")
	}
	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)
	defer redisClient.Close()
	kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic)
	defer kafkaWriter.Close()

	orderRepo := infrastructure.NewGormOrderRepository(db)
	logRepo := infrastructure.NewGormTransitionLogRepository(db)
	txManager := infrastructure.NewGormTxManager(db)

	// 2. 效果适配器
	inventory, err := adapter.NewInventoryRedisAdapter(redisClient)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize inventory adapter")
	}
	notifier := adapter.NewNotificationKafkaAdapter(kafkaWriter)
	webhooks := adapter.NewWebhookHTTPAdapter(httpclient.NewClient(tracer), cfg.App.WebhookEndpoints)

	// 3. 流转引擎：注册内置守卫/效果，挂载配置里的 CEL 规则守卫，
	//    构造服务时做启动校验（缺键在这里直接退出）。
	registry := workflow.NewRegistry()
	if err := workflow.RegisterBuiltins(registry, workflow.BuiltinDeps{
		Payments:           port.NoopPaymentGateway{},
		Inventory:          inventory,
		Notifier:           notifier,
		Webhooks:           webhooks,
		DefaultPermissions: cfg.App.DefaultPermissions,
	}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to register builtin guards/effects")
	}

	var tableOpts []workflow.TableOption
	for transitionName, expression := range cfg.App.TransitionRules {
		guardKey := "rule:" + transitionName
		guard, err := rule.NewCELGuard(expression)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("transition", transitionName).Msg("invalid transition rule")
		}
		if err := registry.RegisterGuard(guardKey, guard); err != nil {
			logger.Logger.Fatal().Err(err).Str("transition", transitionName).Msg("failed to register transition rule")
		}
		tableOpts = append(tableOpts, workflow.WithExtraGuard(transitionName, guardKey))
	}

	workflowSvc, err := workflow.NewService(
		workflow.NewDefaultTable(tableOpts...),
		registry,
		orderRepo,
		logRepo,
		txManager,
		tracer,
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("workflow configuration invalid")
	}

	// 4. 应用层与接口层
	hub := interfaces.NewPushHub()
	appSvc := application.NewOrderApplicationService(orderRepo, workflowSvc, tracer, hub)
	handler := interfaces.NewOrderHandler(appSvc, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		Background: []func(ctx context.Context) error{hub.Run},
	})
}

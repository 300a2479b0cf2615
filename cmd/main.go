package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/archive"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/cli"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/client"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/connector"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/metrics"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/postgres"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/redisstore"
	"github.com/YelzhanWeb/kitchenline/internal/app/kitchen"
	"github.com/YelzhanWeb/kitchenline/internal/app/order"
	"github.com/YelzhanWeb/kitchenline/internal/app/payment"
	"github.com/YelzhanWeb/kitchenline/internal/config"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"golang.org/x/sync/errgroup"

	amqpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/http"
)

const (
	modeKitchen      = "kitchen-service"
	modeOrder        = "order-service"
	modePayment      = "payment-service"
	modeNotification = "notification-subscriber"
	modeChef         = "chef"
	modeDelivery     = "delivery-agent"
	modeUser         = "user"
)

func main() {
	mode := flag.String("mode", "", "Process mode: kitchen-service, order-service, payment-service, notification-subscriber, chef, delivery-agent, user")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port override for service modes")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Kitchen.Port, cfg.Order.Port, cfg.Payment.Port = *port, *port, *port
	}

	interactive := *mode == modeChef || *mode == modeDelivery || *mode == modeUser
	if interactive && (cfg.Log.Output == "" || cfg.Log.Output == "stdout") {
		// keep the console readable
		cfg.Log.Output = "stderr"
	}

	lgr, err := logger.New(*mode, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lgr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case modeKitchen:
		err = runKitchenService(ctx, cfg, lgr)
	case modeOrder:
		err = runOrderService(ctx, cfg, lgr)
	case modePayment:
		err = runPaymentService(ctx, cfg, lgr)
	case modeNotification:
		err = runNotificationSubscriber(ctx, cfg, lgr)
	case modeChef:
		err = cli.NewChef(client.NewKitchen(cfg.Kitchen.URL, nil), domain.DefaultCatalog(), cfg.Client.PollInterval, lgr).
			Run(ctx, os.Stdin, os.Stdout)
	case modeDelivery:
		err = cli.NewDeliveryAgent(client.NewKitchen(cfg.Kitchen.URL, nil), cfg.Client.PollInterval, lgr).
			Run(ctx, os.Stdin, os.Stdout)
	case modeUser:
		err = runUser(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil {
		lgr.Error("fatal", "Process stopped with an error", "shutdown", map[string]interface{}{"mode": *mode}, err)
		lgr.Sync()
		os.Exit(1)
	}
}

func runKitchenService(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	publisher, closePublisher, err := newPublisher(cfg.RabbitMQ, lgr)
	if err != nil {
		return err
	}
	defer closePublisher()

	recorder := metrics.New()
	kitchenService, err := kitchen.NewService(domain.DefaultCatalog(), cfg.Kitchen.InitialStock, publisher, lgr, recorder)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	httpAdapter.NewKitchenHandler(kitchenService, lgr).Register(mux)
	server := httpAdapter.NewServer(cfg.Kitchen.Port, mux, recorder.Handler(), lgr)

	return httpAdapter.Serve(ctx, server, lgr)
}

func runOrderService(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	publisher, closePublisher, err := newPublisher(cfg.RabbitMQ, lgr)
	if err != nil {
		return err
	}
	defer closePublisher()

	orderArchive, closeArchive, err := newArchive(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer closeArchive()

	recorder := metrics.New()
	orderService := order.NewService(
		domain.DefaultCatalog(),
		client.NewKitchen(cfg.Kitchen.URL, nil),
		client.NewPayment(cfg.Payment.URL, nil),
		orderArchive,
		publisher,
		lgr,
		recorder,
		order.Options{HandoffTimeout: cfg.Order.HandoffTimeout},
	)

	mux := http.NewServeMux()
	httpAdapter.NewOrderHandler(orderService, lgr).Register(mux)
	server := httpAdapter.NewServer(cfg.Order.Port, mux, recorder.Handler(), lgr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpAdapter.Serve(gctx, server, lgr)
	})
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Order.HandoffTimeout+time.Second)
		defer cancel()
		if err := orderService.Close(closeCtx); err != nil {
			lgr.Warn("handoff_drain_incomplete", "Pending kitchen hand-offs did not finish", "shutdown", map[string]interface{}{"reason": err.Error()})
		}
		return nil
	})
	return g.Wait()
}

func runPaymentService(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	recorder := metrics.New()
	mux := http.NewServeMux()
	httpAdapter.NewPaymentHandler(payment.NewService(lgr), lgr).Register(mux)
	server := httpAdapter.NewServer(cfg.Payment.Port, mux, recorder.Handler(), lgr)
	return httpAdapter.Serve(ctx, server, lgr)
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)
	if err := consumer.ConsumeNotifications(ctx, handler.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	return nil
}

func runUser(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	dial := func(addr string) connector.Endpoint {
		return client.NewOrder(addr, nil)
	}
	conn, err := connector.New(ctx, dial, connector.Options{
		Primary:           cfg.Client.Primary,
		Secondaries:       cfg.Client.Secondaries,
		Timeout:           cfg.Client.Timeout,
		SecondaryAttempts: cfg.Client.SecondaryAttempts,
	}, lgr)
	if err != nil {
		return err
	}
	return cli.NewUser(conn, lgr).Run(ctx, os.Stdin, os.Stdout)
}

// newPublisher returns the RabbitMQ publisher when enabled, otherwise a no-op.
func newPublisher(cfg config.RabbitMQConfig, lgr logger.Logger) (interfaces.MessagePublisher, func(), error) {
	if !cfg.Enabled {
		return interfaces.NopPublisher{}, func() {}, nil
	}

	mqConn, err := rabbitmq.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.Host,
	})

	publisher := rabbitmq.NewPublisher(mqConn)
	return publisher, func() {
		publisher.Close()
		mqConn.Close()
	}, nil
}

func newArchive(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.OrderArchive, func(), error) {
	switch cfg.Order.Archive.Driver {
	case config.ArchivePostgres:
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		repo := postgres.NewArchiveRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
		return repo, db.Close, nil

	case config.ArchiveRedis:
		rdb, err := redisstore.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
		return redisstore.NewArchive(rdb, cfg.Order.Archive.TTL), func() { rdb.Close() }, nil

	default:
		fa, err := archive.NewFileArchive(cfg.Order.Archive.Dir)
		if err != nil {
			return nil, nil, err
		}
		lgr.Info("archive_ready", "Using file archive", "startup", map[string]interface{}{
			"dir": cfg.Order.Archive.Dir,
		})
		return fa, func() {}, nil
	}
}

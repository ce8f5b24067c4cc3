package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/mod-hub/mod-hub/internal/cache"
	"github.com/mod-hub/mod-hub/internal/config"
	"github.com/mod-hub/mod-hub/internal/logging"
	"github.com/mod-hub/mod-hub/internal/metrics"
	"github.com/mod-hub/mod-hub/internal/server"
	"github.com/mod-hub/mod-hub/internal/server/routes"
	"github.com/mod-hub/mod-hub/internal/store"
	"github.com/mod-hub/mod-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["store_remote"] = cfg.Store.IsRemote()
		fields["store_auth"] = cfg.Store.AuthMode()
		fields["refresh_interval"] = cfg.Cache.RefreshInterval.DurationValue().String()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 启动顺序为“配置 → 数据库 → 缓存 → Fiber server”，数据库不可达时直接退出，
	// 不以冷缓存对外提供服务。
	sqlStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		fmt.Fprintf(stdErr, "连接数据库失败: %v\n", err)
		return 1
	}
	defer sqlStore.Close()

	app, err := buildApp(cfg, logger, sqlStore)
	if err != nil {
		fmt.Fprintf(stdErr, "构建 HTTP 服务失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["store_driver"] = sqlStore.Driver()
	fields["store_auth"] = cfg.Store.AuthMode()
	fields["refresh_interval"] = cfg.Cache.RefreshInterval.DurationValue().String()
	fields["version_order"] = cfg.Cache.VersionOrder
	fields["sync_enabled"] = cfg.Global.SyncEnabled()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := serve(ctx, app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("mod-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 MOD_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("MOD_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// buildApp 组装缓存控制器、指标与路由，与监听解耦以便测试直接调用 app.Test。
func buildApp(cfg *config.Config, logger *logrus.Logger, source *store.SQLStore) (*fiber.App, error) {
	recorder := metrics.New()
	ctrl, err := cache.NewController(cache.Options{
		Source:       source,
		Logger:       logger,
		Policy:       cache.NewPolicy(cfg.Cache.RefreshInterval.DurationValue(), nil),
		Observer:     recorder,
		QueryTimeout: cfg.Store.QueryTimeout.DurationValue(),
		VersionOrder: cache.VersionOrder(cfg.Cache.VersionOrder),
	})
	if err != nil {
		return nil, err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Catalog:      ctrl,
		ListenPort:   cfg.Global.ListenPort,
		AllowOrigins: cfg.Global.AllowOrigins,
	})
	if err != nil {
		return nil, err
	}

	routes.RegisterCatalogRoutes(app, ctrl, logger, cfg.Global.RoutePrefix)
	routes.RegisterDiagnosticsRoutes(app, routes.DiagnosticsOptions{
		Service:   ctrl,
		Logger:    logger,
		Metrics:   recorder.Handler(),
		SyncToken: cfg.Global.SyncToken,
		Prefix:    cfg.Global.RoutePrefix,
	})
	return app, nil
}

// serve 监听端口直到 ctx 结束，随后在限定时间内优雅关闭。
func serve(ctx context.Context, app *fiber.App, port int, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"action": "listen",
			"port":   port,
		}).Info("Fiber 服务启动")
		errCh <- app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.WithFields(logrus.Fields{"action": "shutdown"}).Info("收到退出信号，停止服务")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

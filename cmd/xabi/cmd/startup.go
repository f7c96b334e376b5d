package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xuperchain/xabi/bcs/module/random"
	"github.com/xuperchain/xabi/bcs/module/token"
	"github.com/xuperchain/xabi/bcs/module/validators"
	"github.com/xuperchain/xabi/kernel/common/xconfig"
	"github.com/xuperchain/xabi/kernel/engines/app"
	"github.com/xuperchain/xabi/kernel/state"
	"github.com/xuperchain/xabi/kernel/statemachine"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/metrics"
	"github.com/xuperchain/xabi/lib/storage/kvdb"
	"github.com/xuperchain/xabi/server/rpc"

	// import要使用的存储引擎驱动
	_ "github.com/xuperchain/xabi/lib/storage/kvdb/badger"
	_ "github.com/xuperchain/xabi/lib/storage/kvdb/leveldb"
)

type StartupCmd struct {
	BaseCmd
}

func GetStartupCmd() *StartupCmd {
	startupCmdIns := new(StartupCmd)

	// 定义命令行参数变量
	var envCfgPath string

	startupCmdIns.cmd = &cobra.Command{
		Use:           "startup",
		Short:         "Start up the application process.",
		Example:       "xabi startup --conf /home/rd/xabi/conf/env.yaml",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return StartupApp(envCfgPath)
		},
	}

	// 设置命令行参数并绑定变量
	startupCmdIns.cmd.Flags().StringVarP(&envCfgPath, "conf", "c", "",
		"environment config file path")

	return startupCmdIns
}

// NewModules is the module set of the application, in execution order
func NewModules() []statemachine.Module {
	return []statemachine.Module{
		validators.NewModule(),
		token.NewModule(),
		random.NewModule(),
	}
}

// 启动应用进程，阻塞直到收到退出信号
func StartupApp(envCfgPath string) error {
	envConf, err := xconfig.LoadEnvConf(envCfgPath)
	if err != nil {
		return err
	}
	appConf, err := envConf.LoadAppConf()
	if err != nil {
		return err
	}

	// 初始化日志
	if err := logs.InitLog(envConf.GenConfFilePath(envConf.LogConf), envConf.GenDirAbsPath(envConf.LogDir)); err != nil {
		return err
	}
	log, err := logs.NewLogger("", "xabi")
	if err != nil {
		return err
	}

	stateStore, err := state.NewStore(&state.Config{
		Path:        envConf.GenDataAbsPath(appConf.StateDir),
		CacheSize:   appConf.StateCacheSize,
		StorageType: appConf.StateStorage,
	}, log)
	if err != nil {
		return err
	}
	defer stateStore.Close()

	moduleDB, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
		DBPath:                envConf.GenDataAbsPath(appConf.ModuleDBDir),
		KVEngineType:          appConf.ModuleDBEngine,
		StorageType:           appConf.ModuleDBStorage,
		MemCacheSize:          appConf.MemCacheSize,
		FileHandlersCacheSize: appConf.FdCacheSize,
	})
	if err != nil {
		return err
	}
	defer moduleDB.Close()

	sm := statemachine.NewStateMachine()
	for _, m := range NewModules() {
		if err := sm.Register(m); err != nil {
			return err
		}
	}
	handler := app.NewABIHandler(envConf, stateStore, moduleDB, sm, log)
	if err := handler.Ready(); err != nil {
		return err
	}

	servMG, err := rpc.NewRpcServMG(appConf.Endpoint, handler)
	if err != nil {
		return err
	}
	if err := servMG.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case err := <-servMG.Exit():
			if err == nil {
				err = errors.New("rpc server exited")
			}
			return err
		case <-gctx.Done():
			servMG.Stop()
			return nil
		}
	})

	if envConf.MetricSwitch {
		metrics.RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricServ := &http.Server{Addr: appConf.MetricAddr, Handler: mux}
		g.Go(func() error {
			err := metricServ.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return metricServ.Shutdown(sctx)
		})
		log.Info("metric server started", "addr", appConf.MetricAddr)
	}

	err = g.Wait()
	log.Info("application exit", "err", err)
	return err
}

// @title           Document Q&A API
// @version         1.0
// @description     Upload a document, then ask questions about it. Short documents are answered from their full text, long ones through retrieval.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/GoDocQA/internal/app"
	"github.com/akolanti/GoDocQA/internal/config"
	jobmodel "github.com/akolanti/GoDocQA/internal/domain/jobModel"
	"github.com/akolanti/GoDocQA/internal/handlers"
	"github.com/akolanti/GoDocQA/internal/job"
	"github.com/akolanti/GoDocQA/internal/server"
	"github.com/akolanti/GoDocQA/internal/worker"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
)

var (
	listenAddr        string
	configPath        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&configPath, "config", "docqa.yaml", "path to the yaml config file")
	flag.Parse()

	opts, err := config.Load(configPath)
	logger_i.InitWith(os.Stdout, logger_i.ParseLevel(opts.LogLevel))
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	application, err := app.Build(serviceContext, opts)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		return
	}

	//init job service and job store
	jobStore := app.JobStore(serviceContext, opts)
	if jobStore == nil {
		logger.Error("Job store is offline. Shutting down.")
		return
	}
	logger.Info("Starting job service", "provider", opts.Provider, "vectorBackend", opts.VectorBackend, "persist", opts.Persist)
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
		Rag:               application.Rag,
	})

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, application.Rag)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

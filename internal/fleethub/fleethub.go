// Package fleethub assembles the fleet hub process.
package fleethub

import (
	"context"
	"errors"
	"time"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/internal/fleethub/server"
	"github.com/autopeer-io/fleethub/internal/fleethub/storage"
	"github.com/autopeer-io/fleethub/pkg/log"
)

const (
	exampleID   = "AAA"
	exampleName = "TestCar"
)

// FleetHub is the main application struct.
type FleetHub struct {
	hub           *hub.Hub
	serverManager *server.Manager
	backup        *storage.MinIO
	seedExample   bool
}

// Run seeds and saves the registry, then serves until ctx is canceled. The
// event loop outlives the servers so that their last disconnects are applied.
func (a *FleetHub) Run(ctx context.Context) error {
	log.Info("Starting FleetHub Application...")

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer func() {
		stopLoop()
		<-a.hub.Stopped()
		log.Info("FleetHub stopped")
	}()
	go a.hub.Run(loopCtx)

	// 1. 注册示例车辆并落盘
	if a.seedExample {
		if err := a.seed(ctx); err != nil {
			return err
		}
	}
	if err := a.hub.Save(ctx); err != nil {
		return err
	}

	// 2. 检查备份桶 (失败不影响启动)
	if a.backup != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.backup.CheckBucket(checkCtx); err != nil {
			log.Error(err, "Snapshot backup unavailable", "key", a.backup.ObjectKey())
		}
		cancel()
	}

	// 3. 启动 Servers (阻塞)
	err := a.serverManager.Start(ctx)

	// 4. Server 退出后再保存一次
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := a.hub.Save(saveCtx); serr != nil {
		log.Error(serr, "Final snapshot save failed")
	}

	return err
}

// seed registers the example vehicle. An existing AAA is kept as is.
func (a *FleetHub) seed(ctx context.Context) error {
	_, err := a.hub.RegisterCar(ctx, exampleID, exampleName, nil, nil)
	switch {
	case err == nil:
		log.Info("Example vehicle registered", "vehicleID", exampleID)
	case errors.Is(err, registry.ErrDuplicateID):
		log.Info("Example vehicle already registered", "vehicleID", exampleID)
	default:
		return err
	}
	return nil
}

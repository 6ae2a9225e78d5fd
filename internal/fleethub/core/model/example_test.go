package model_test

import (
	"context"
	"fmt"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

// ExampleStatusMachine 展示车辆状态在连接生命周期中的流转。
func ExampleStatusMachine() {
	ctx := context.Background()
	car := model.NewCar("AAA", "TestCar", nil, nil)
	fmt.Println(car.Status)

	m := model.NewStatusMachine(car)

	// 认证成功
	_ = m.Connect(ctx)
	fmt.Println(car.Status)

	// 外部监控上报故障
	_ = m.Fault(ctx)
	fmt.Println(car.Status)

	// 最后一个连接断开
	_ = m.Disconnect(ctx)
	fmt.Println(car.Status)

	// 未连接的车辆不能再次断开
	fmt.Println(m.Disconnect(ctx) != nil)

	// Output:
	// New
	// Online
	// Error
	// Offline
	// true
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/internal/fleethub/server/ws"
	"github.com/autopeer-io/fleethub/pkg/options"
)

func TestDecodeVehicles(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
	}{
		{"registry", `{"registry":{"BBB":{"id":"BBB","name":"b"},"AAA":{"id":"AAA","name":"a"}}}`, []string{"AAA", "BBB"}},
		{"array", `[{"id":"CCC","type":"Car","status":"Online"}]`, []string{"CCC"}},
		{"empty array", `[]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeVehicles(json.RawMessage(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, v := range got {
				ids = append(ids, v.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}

	if _, err := decodeVehicles(json.RawMessage(`"nope"`)); err == nil {
		t.Error("decodeVehicles accepted a string")
	}
}

func TestPrintResponse(t *testing.T) {
	data := json.RawMessage(`[{"id":"AAA","name":"TestCar","type":"Car","status":"Online","settings":{"b":true,"a":"x"}}]`)

	var table bytes.Buffer
	if err := printResponse(&table, outputTable, data); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ID", "STATUS", "AAA", "TestCar", "Online", "a=x,b=true"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, table.String())
		}
	}

	var raw bytes.Buffer
	if err := printResponse(&raw, outputJSON, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw.String(), "\n  {\n") {
		t.Errorf("json output not indented:\n%s", raw.String())
	}
}

func TestRegisterRequest(t *testing.T) {
	o := registerOptions{
		Settings: []string{"autopilot=true", "mode=eco", "note=a=b"},
		Info:     []string{"vin=123"},
	}
	req, err := o.request("BBB", "Van")
	if err != nil {
		t.Fatal(err)
	}
	got := req.AsMap()
	settings := got["settings"].(map[string]any)
	if settings["autopilot"] != true || settings["mode"] != "eco" || settings["note"] != "a=b" {
		t.Errorf("settings = %v", settings)
	}
	if got["info"].(map[string]any)["vin"] != "123" {
		t.Errorf("info = %v", got["info"])
	}

	bad := registerOptions{Info: []string{"novalue"}}
	if _, err := bad.request("BBB", "Van"); err == nil {
		t.Error("request accepted a pair without '='")
	}
}

func TestRequestAgainstHub(t *testing.T) {
	reg := registry.New()
	if _, err := reg.RegisterCar("AAA", "TestCar", nil, nil); err != nil {
		t.Fatal(err)
	}
	h := hub.New(reg, filepath.Join(t.TempDir(), "DB.json"))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	srv := httptest.NewServer(ws.NewServer(options.NewWsOptions(), h).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Stopped()
	})

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()

	opts := &requestOptions{Server: "ws" + strings.TrimPrefix(srv.URL, "http"), ID: "AAA"}
	data, err := request(reqCtx, opts, []string{"getActive"})
	if err != nil {
		t.Fatal(err)
	}
	vehicles, err := decodeVehicles(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(vehicles) != 1 || vehicles[0].ID != "AAA" {
		t.Errorf("getActive = %s", data)
	}

	opts.ID = "ZZZ"
	if _, err := request(reqCtx, opts, []string{"getAll"}); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("request with unknown ID = %v", err)
	}
}

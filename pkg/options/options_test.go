package options

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:3000", false},
		{":8091", false},
		{"localhost:8443", false},
		{"[::1]:3000", false},
		{"3000", true},
		{"host:port", true},
		{"host:70000", true},
	}
	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	for name, o := range map[string]IOptions{
		"ws":    NewWsOptions(),
		"store": NewStoreOptions(),
		"http":  NewHttpOptions(),
		"grpc":  NewGrpcOptions(),
		"mqtt":  NewMqttOptions(),
		"s3":    NewS3Options(),
	} {
		if errs := o.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults are invalid: %v", name, errs)
		}
	}
}

func TestOptionalConcernsValidateOnlyWhenEnabled(t *testing.T) {
	m := NewMqttOptions()
	m.TopicRoot = ""
	if errs := m.Validate(); len(errs) != 0 {
		t.Errorf("disabled MQTT reported %v", errs)
	}
	m.Broker = "not a url"
	if errs := m.Validate(); len(errs) != 2 {
		t.Errorf("enabled MQTT errors = %v, want 2", errs)
	}

	s := NewS3Options()
	s.BucketName = ""
	if errs := s.Validate(); len(errs) != 0 {
		t.Errorf("disabled S3 reported %v", errs)
	}
	s.Endpoint = "minio.local:9000"
	if errs := s.Validate(); len(errs) != 1 {
		t.Errorf("enabled S3 errors = %v, want 1", errs)
	}
}

func TestStoreOptionsFormat(t *testing.T) {
	o := NewStoreOptions()
	o.Path = "registry.toml"
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("Validate() = %v, want one format error", errs)
	}
}

func TestAddFlags(t *testing.T) {
	ws := NewWsOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	ws.AddFlags(fs)

	if err := fs.Parse([]string{"--ws.addr=127.0.0.1:4000", "--ws.allowed-origins=a,b"}); err != nil {
		t.Fatal(err)
	}
	if ws.Addr != "127.0.0.1:4000" || len(ws.AllowedOrigins) != 2 {
		t.Errorf("parsed options = %+v", ws)
	}
}

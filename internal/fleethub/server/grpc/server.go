package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/dispatch"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	grpcmiddleware "github.com/autopeer-io/fleethub/internal/pkg/middleware/grpc"
	pb "github.com/autopeer-io/fleethub/pkg/apis/fleet/v1"
	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/options"
)

// Admin is the part of the hub exposed over gRPC.
type Admin interface {
	RegisterCar(ctx context.Context, id, name string, settings map[string]any, info map[string]string) (*model.Vehicle, error)
	DeleteCar(ctx context.Context, id string) error
	Fault(ctx context.Context, id, reason string) error
	Dispatch(ctx context.Context, name string, args []string) (json.RawMessage, error)
	Save(ctx context.Context) error
	Commands() []string
}

var _ Admin = (*hub.Hub)(nil)

type Server struct {
	server  *grpc.Server
	health  *health.Server
	admin   Admin
	options *options.GrpcOptions
}

var _ pb.FleetAdminServer = (*Server)(nil)

func NewServer(opts *options.GrpcOptions, admin Admin) *Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(grpcmiddleware.UnaryServerTimeout(opts.Timeout)))
	srv := &Server{
		server:  s,
		health:  health.NewServer(),
		admin:   admin,
		options: opts,
	}
	pb.RegisterFleetAdminServer(s, srv)
	healthpb.RegisterHealthServer(s, srv.health)
	srv.health.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s) // Enable grpc_cli support
	return srv
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log.Info("Starting gRPC Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		return nil
	}
}

// Dispatch runs a command outside of any vehicle session.
func (s *Server) Dispatch(ctx context.Context, req *structpb.ListValue) (*structpb.Value, error) {
	name, args, err := commandFromList(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	raw, err := s.admin.Dispatch(ctx, name, args)
	if errors.Is(err, dispatch.ErrUnrecognizedCommand) {
		return nil, status.Errorf(codes.InvalidArgument, "%v (known: %s)", err, strings.Join(s.admin.Commands(), ", "))
	}
	if err != nil {
		return nil, toStatus(err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, status.Errorf(codes.Internal, "decoding result: %v", err)
	}
	out, err := structpb.NewValue(decoded)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	return out, nil
}

func (s *Server) RegisterCar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	id, _ := fields["id"].(string)
	name, _ := fields["name"].(string)

	var settings map[string]any
	if raw, ok := fields["settings"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "settings must be an object")
		}
		settings = m
	}

	var info map[string]string
	if raw, ok := fields["info"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "info must be an object")
		}
		info = make(map[string]string, len(m))
		for k, v := range m {
			str, ok := v.(string)
			if !ok {
				return nil, status.Errorf(codes.InvalidArgument, "info value %q must be a string", k)
			}
			info[k] = str
		}
	}

	v, err := s.admin.RegisterCar(ctx, id, name, settings, info)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.admin.Save(ctx); err != nil {
		log.Error(err, "Failed to save snapshot after registration", "vehicleID", id)
	}

	out, err := vehicleStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding vehicle: %v", err)
	}
	return out, nil
}

func (s *Server) DeleteCar(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.admin.DeleteCar(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	if err := s.admin.Save(ctx); err != nil {
		log.Error(err, "Failed to save snapshot after deletion", "vehicleID", req.GetValue())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) MarkFault(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	id := fields["id"].GetStringValue()
	reason := fields["reason"].GetStringValue()

	if err := s.admin.Fault(ctx, id, reason); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Save(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.admin.Save(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func commandFromList(req *structpb.ListValue) (string, []string, error) {
	values := req.GetValues()
	if len(values) == 0 {
		return "", nil, errors.New("a command name is required")
	}

	words := make([]string, len(values))
	for i, v := range values {
		str, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", nil, fmt.Errorf("argument %d is not a string", i)
		}
		words[i] = str.StringValue
	}
	return words[0], words[1:], nil
}

func vehicleStruct(v *model.Vehicle) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// toStatus maps hub errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, registry.ErrDuplicateID):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, registry.ErrInvalidVehicle), errors.Is(err, dispatch.ErrUnrecognizedCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, hub.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

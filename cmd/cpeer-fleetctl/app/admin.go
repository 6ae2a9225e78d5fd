package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcmiddleware "github.com/autopeer-io/fleethub/internal/pkg/middleware/grpc"
	pb "github.com/autopeer-io/fleethub/pkg/apis/fleet/v1"
)

type adminOptions struct {
	Addr string
}

func newAdminCommand(root *rootOptions) *cobra.Command {
	opts := &adminOptions{Addr: "127.0.0.1:8091"}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer the registry over the admin gRPC port",
	}
	cmd.PersistentFlags().StringVar(&opts.Addr, "grpc-addr", opts.Addr, "Address of the admin gRPC server.")

	withClient := func(run func(cmd *cobra.Command, client pb.FleetAdminClient, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(opts.Addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithUnaryInterceptor(grpcmiddleware.WithTimeout(root.Timeout)),
			)
			if err != nil {
				return fmt.Errorf("failed to initialize gRPC client for %s: %w", opts.Addr, err)
			}
			defer conn.Close()
			return run(cmd, pb.NewFleetAdminClient(conn), args)
		}
	}

	var register registerOptions
	registerCmd := &cobra.Command{
		Use:     "register ID NAME",
		Short:   "Register a car",
		Example: `  cpeer-fleetctl admin register BBB "Delivery van" --setting autopilot=true --info vin=1HGCM82633A004352`,
		Args:    cobra.ExactArgs(2),
		RunE: withClient(func(cmd *cobra.Command, client pb.FleetAdminClient, args []string) error {
			req, err := register.request(args[0], args[1])
			if err != nil {
				return err
			}
			v, err := client.RegisterCar(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printProto(cmd.OutOrStdout(), v)
		}),
	}
	registerCmd.Flags().StringArrayVar(&register.Settings, "setting", nil, "Setting as key=value; true and false are stored as booleans. Repeatable.")
	registerCmd.Flags().StringArrayVar(&register.Info, "info", nil, "Info entry as key=value. Repeatable.")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(cmd *cobra.Command, client pb.FleetAdminClient, args []string) error {
			_, err := client.DeleteCar(cmd.Context(), wrapperspb.String(args[0]))
			return err
		}),
	}

	faultCmd := &cobra.Command{
		Use:   "fault ID [REASON]",
		Short: "Move a vehicle to the Error status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withClient(func(cmd *cobra.Command, client pb.FleetAdminClient, args []string) error {
			fields := map[string]any{"id": args[0]}
			if len(args) == 2 {
				fields["reason"] = args[1]
			}
			req, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}
			_, err = client.MarkFault(cmd.Context(), req)
			return err
		}),
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Write the registry snapshot now",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, client pb.FleetAdminClient, _ []string) error {
			_, err := client.Save(cmd.Context(), &emptypb.Empty{})
			return err
		}),
	}

	dispatchCmd := &cobra.Command{
		Use:   "dispatch COMMAND [ARG...]",
		Short: "Run a command without connecting as a vehicle",
		Args:  cobra.MinimumNArgs(1),
		RunE: withClient(func(cmd *cobra.Command, client pb.FleetAdminClient, args []string) error {
			words := make([]any, len(args))
			for i, a := range args {
				words[i] = a
			}
			req, err := structpb.NewList(words)
			if err != nil {
				return err
			}
			v, err := client.Dispatch(cmd.Context(), req)
			if err != nil {
				return err
			}
			data, err := protojson.Marshal(v)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), root.Output, data)
		}),
	}

	cmd.AddCommand(registerCmd, deleteCmd, faultCmd, saveCmd, dispatchCmd)
	return cmd
}

type registerOptions struct {
	Settings []string
	Info     []string
}

func (o *registerOptions) request(id, name string) (*structpb.Struct, error) {
	settings := map[string]any{}
	for _, kv := range o.Settings {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		switch v {
		case "true", "false":
			settings[k] = v == "true"
		default:
			settings[k] = v
		}
	}

	info := map[string]any{}
	for _, kv := range o.Info {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		info[k] = v
	}

	return structpb.NewStruct(map[string]any{
		"id":       id,
		"name":     name,
		"settings": settings,
		"info":     info,
	})
}

func splitPair(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("%q is not a key=value pair", kv)
	}
	return k, v, nil
}

func printProto(w io.Writer, m proto.Message) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

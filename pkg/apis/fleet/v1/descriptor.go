package v1

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminProtoPath is the path of admin.proto below api/proto.
const AdminProtoPath = "fleethub/v1/admin.proto"

// AdminFile describes api/proto/fleethub/v1/admin.proto. It is registered in
// protoregistry.GlobalFiles so server reflection can serve it.
var AdminFile protoreflect.FileDescriptor

func init() {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(".google.protobuf." + in),
			OutputType: proto.String(".google.protobuf." + out),
		}
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(AdminProtoPath),
		Package: proto.String("fleethub.v1"),
		Dependency: []string{
			"google/protobuf/empty.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/wrappers.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("FleetAdmin"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Dispatch", "ListValue", "Value"),
				method("RegisterCar", "Struct", "Struct"),
				method("DeleteCar", "StringValue", "Empty"),
				method("MarkFault", "Struct", "Empty"),
				method("Save", "Empty", "Empty"),
			},
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/autopeer-io/fleethub/pkg/apis/fleet/v1;v1"),
		},
		Syntax: proto.String("proto3"),
	}

	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic("fleethub/v1: building admin.proto descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("fleethub/v1: registering admin.proto descriptor: " + err.Error())
	}
	AdminFile = fd
}

// Package vaultpb declares the secvault.v1.Vault gRPC service.
//
// Requests and responses are google.protobuf.Struct messages; field names are
// listed in package convert. The layout mirrors protoc-gen-go-grpc output so
// the service can later be moved to a .proto definition without touching callers.
package vaultpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "secvault.v1.Vault"

const (
	Vault_Register_FullMethodName           = "/secvault.v1.Vault/Register"
	Vault_Login_FullMethodName              = "/secvault.v1.Vault/Login"
	Vault_SubmitSecondFactor_FullMethodName = "/secvault.v1.Vault/SubmitSecondFactor"
	Vault_EnableSecondFactor_FullMethodName = "/secvault.v1.Vault/EnableSecondFactor"
	Vault_Logout_FullMethodName             = "/secvault.v1.Vault/Logout"
	Vault_Upload_FullMethodName             = "/secvault.v1.Vault/Upload"
	Vault_Read_FullMethodName               = "/secvault.v1.Vault/Read"
	Vault_Share_FullMethodName              = "/secvault.v1.Vault/Share"
	Vault_Metadata_FullMethodName           = "/secvault.v1.Vault/Metadata"
)

// VaultServer is the server API for the Vault service.
type VaultServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitSecondFactor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EnableSecondFactor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Upload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Read(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Share(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Metadata(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedVaultServer can be embedded to have forward compatible implementations.
type UnimplementedVaultServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedVaultServer) Register(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedVaultServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedVaultServer) SubmitSecondFactor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SubmitSecondFactor")
}
func (UnimplementedVaultServer) EnableSecondFactor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("EnableSecondFactor")
}
func (UnimplementedVaultServer) Logout(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedVaultServer) Upload(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Upload")
}
func (UnimplementedVaultServer) Read(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Read")
}
func (UnimplementedVaultServer) Share(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Share")
}
func (UnimplementedVaultServer) Metadata(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Metadata")
}

// RegisterVaultServer registers srv on s.
func RegisterVaultServer(s grpc.ServiceRegistrar, srv VaultServer) {
	s.RegisterService(&Vault_ServiceDesc, srv)
}

type unaryCall func(VaultServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Vault_ServiceDesc is the grpc.ServiceDesc for the Vault service.
var Vault_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(Vault_Register_FullMethodName, VaultServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(Vault_Login_FullMethodName, VaultServer.Login)},
		{MethodName: "SubmitSecondFactor", Handler: unaryHandler(Vault_SubmitSecondFactor_FullMethodName, VaultServer.SubmitSecondFactor)},
		{MethodName: "EnableSecondFactor", Handler: unaryHandler(Vault_EnableSecondFactor_FullMethodName, VaultServer.EnableSecondFactor)},
		{MethodName: "Logout", Handler: unaryHandler(Vault_Logout_FullMethodName, VaultServer.Logout)},
		{MethodName: "Upload", Handler: unaryHandler(Vault_Upload_FullMethodName, VaultServer.Upload)},
		{MethodName: "Read", Handler: unaryHandler(Vault_Read_FullMethodName, VaultServer.Read)},
		{MethodName: "Share", Handler: unaryHandler(Vault_Share_FullMethodName, VaultServer.Share)},
		{MethodName: "Metadata", Handler: unaryHandler(Vault_Metadata_FullMethodName, VaultServer.Metadata)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "secvault/v1/vault.proto",
}

// VaultClient is the client API for the Vault service.
type VaultClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubmitSecondFactor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EnableSecondFactor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Upload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Share(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Metadata(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type vaultClient struct {
	cc grpc.ClientConnInterface
}

// NewVaultClient wraps cc.
func NewVaultClient(cc grpc.ClientConnInterface) VaultClient {
	return &vaultClient{cc: cc}
}

func (c *vaultClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Register_FullMethodName, in, opts)
}
func (c *vaultClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Login_FullMethodName, in, opts)
}
func (c *vaultClient) SubmitSecondFactor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_SubmitSecondFactor_FullMethodName, in, opts)
}
func (c *vaultClient) EnableSecondFactor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_EnableSecondFactor_FullMethodName, in, opts)
}
func (c *vaultClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Logout_FullMethodName, in, opts)
}
func (c *vaultClient) Upload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Upload_FullMethodName, in, opts)
}
func (c *vaultClient) Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Read_FullMethodName, in, opts)
}
func (c *vaultClient) Share(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Share_FullMethodName, in, opts)
}
func (c *vaultClient) Metadata(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Vault_Metadata_FullMethodName, in, opts)
}

package vtablecli

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/funvibe/vtablec/internal/vtable"
	"github.com/funvibe/vtablec/internal/vtablebuild"
	"github.com/funvibe/vtablec/internal/vtableconfig"
	"github.com/funvibe/vtablec/internal/vtablepb"
)

// builderHandler implements the VtableBuilder grpc service over dynamic
// messages, the same unregistered-codegen approach the proto service
// descriptor it's built from was parsed with.
type builderHandler struct {
	designations vtableconfig.Designations
}

func runServe(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "vtablec serve: missing <addr>")
		return 1
	}
	addr := args[0]
	configPath := ""
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "-config" {
			configPath = args[i+1]
		}
	}
	designations, err := parseDesignations(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec serve: %v\n", err)
		return 1
	}

	sd, err := vtablepb.LoadService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec serve: %v\n", err)
		return 1
	}

	handler := &builderHandler{designations: designations}
	svcDesc := &grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    sd.GetFile().GetName(),
	}
	for _, method := range sd.GetMethods() {
		md := method
		svcDesc.Methods = append(svcDesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				h := srv.(*builderHandler)
				return h.handleUnary(ctx, md, dec)
			},
		})
	}

	server := grpc.NewServer()
	server.RegisterService(svcDesc, handler)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec serve: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "vtablec serve: listening on %s\n", addr)
	if err := server.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "vtablec serve: %v\n", err)
		return 1
	}
	return 0
}

func (h *builderHandler) handleUnary(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	inMsg := dynamic.NewMessage(md.GetInputType())
	if err := dec(inMsg); err != nil {
		return nil, err
	}

	reply := dynamic.NewMessage(md.GetOutputType())

	snapshotField, err := inMsg.TryGetFieldByName("snapshot")
	if err != nil {
		return nil, fmt.Errorf("reading snapshot field: %w", err)
	}
	snapshot, _ := snapshotField.([]byte)

	image, buildErr := h.build(snapshot)
	if buildErr != nil {
		_ = reply.TrySetFieldByName("ok", false)
		_ = reply.TrySetFieldByName("error", buildErr.Error())
		return reply, nil
	}
	_ = reply.TrySetFieldByName("ok", true)
	_ = reply.TrySetFieldByName("image", image)
	return reply, nil
}

func (h *builderHandler) build(snapshot []byte) ([]byte, error) {
	in, err := vtablebuild.IngestSnapshot(snapshot, h.designations)
	if err != nil {
		return nil, err
	}
	result, err := vtablebuild.New(in).Build()
	if err != nil {
		return nil, err
	}
	img := vtable.NewTableImage(result.Length, result.Registry.AllSelectors())
	return img.Serialize()
}

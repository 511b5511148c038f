package vtablepb

import (
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

var (
	serviceOnce sync.Once
	serviceErr  error
	serviceDesc *desc.ServiceDescriptor
)

const serviceSchemaSource = `syntax = "proto3";

package vtablepb;

// BuildRequest carries a raw HierarchySnapshot, opaque to the transport: the
// grpc service just forwards the bytes to vtablebuild.IngestSnapshot.
message BuildRequest {
  bytes snapshot = 1;
}

// BuildReply carries a serialized TableImage (internal/vtable's gob framing,
// not a proto message itself) on success, or an error description.
message BuildReply {
  bool ok = 1;
  bytes image = 2;
  string error = 3;
}

service VtableBuilder {
  rpc BuildDispatchTable(BuildRequest) returns (BuildReply);
}
`

// LoadService parses the embedded grpc service schema and returns its
// ServiceDescriptor, the same runtime-parse-no-codegen approach
// DecodeHierarchySnapshot uses for the message schema.
func LoadService() (*desc.ServiceDescriptor, error) {
	serviceOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{
				"service.proto": serviceSchemaSource,
			}),
		}
		fds, err := parser.ParseFiles("service.proto")
		if err != nil {
			serviceErr = fmt.Errorf("parsing embedded service.proto: %w", err)
			return
		}
		if len(fds) == 0 {
			serviceErr = fmt.Errorf("parsing embedded service.proto: no file descriptors produced")
			return
		}
		sd := fds[0].FindService("vtablepb.VtableBuilder")
		if sd == nil {
			serviceErr = fmt.Errorf("service vtablepb.VtableBuilder not found in schema")
			return
		}
		serviceDesc = sd
	})
	return serviceDesc, serviceErr
}

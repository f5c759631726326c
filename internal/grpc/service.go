package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const serviceName = "hazards.v1.HazardService"

type GetReportRequest struct {
	ID string `json:"id"`
}

type ListReportsRequest struct {
	Type        string `json:"type,omitempty"`
	MinSeverity string `json:"min_severity,omitempty"`
	Status      string `json:"status,omitempty"`
	Limit       int32  `json:"limit,omitempty"`
}

type ListReportsResponse struct {
	Reports []models.HazardReport `json:"reports"`
}

type ListHotspotsRequest struct {
	MinIntensity string `json:"min_intensity,omitempty"`
}

type ListHotspotsResponse struct {
	Hotspots []models.Hotspot `json:"hotspots"`
}

type StreamReportsRequest struct {
	Type        string `json:"type,omitempty"`
	MinSeverity string `json:"min_severity,omitempty"`
}

type HazardServiceServer interface {
	GetReport(context.Context, *GetReportRequest) (*models.HazardReport, error)
	ListReports(context.Context, *ListReportsRequest) (*ListReportsResponse, error)
	ListHotspots(context.Context, *ListHotspotsRequest) (*ListHotspotsResponse, error)
	StreamReports(*StreamReportsRequest, grpc.ServerStreamingServer[models.ReportEvent]) error
}

// HazardServiceDesc is registered by hand; messages travel as JSON.
var HazardServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*HazardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetReport", Handler: getReportHandler},
		{MethodName: "ListReports", Handler: listReportsHandler},
		{MethodName: "ListHotspots", Handler: listHotspotsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamReports", Handler: streamReportsHandler, ServerStreams: true},
	},
	Metadata: "hazards/v1/hazards.json",
}

func unary[Req, Resp any](
	method string,
	call func(HazardServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HazardServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HazardServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	getReportHandler    = unary("GetReport", HazardServiceServer.GetReport)
	listReportsHandler  = unary("ListReports", HazardServiceServer.ListReports)
	listHotspotsHandler = unary("ListHotspots", HazardServiceServer.ListHotspots)
)

func streamReportsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamReportsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(HazardServiceServer).StreamReports(in, &grpc.GenericServerStream[StreamReportsRequest, models.ReportEvent]{ServerStream: stream})
}

// Client calls HazardService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetReport(ctx context.Context, in *GetReportRequest, opts ...grpc.CallOption) (*models.HazardReport, error) {
	out := new(models.HazardReport)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetReport", in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListReports(ctx context.Context, in *ListReportsRequest, opts ...grpc.CallOption) (*ListReportsResponse, error) {
	out := new(ListReportsResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListReports", in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListHotspots(ctx context.Context, in *ListHotspotsRequest, opts ...grpc.CallOption) (*ListHotspotsResponse, error) {
	out := new(ListHotspotsResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ListHotspots", in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StreamReports(ctx context.Context, in *StreamReportsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[models.ReportEvent], error) {
	stream, err := c.cc.NewStream(ctx, &HazardServiceDesc.Streams[0], "/"+serviceName+"/StreamReports", callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamReportsRequest, models.ReportEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}

package grpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/go-ocean-hazards/internal/hotspot"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/stream"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	hotspotScanLimit = 1000
)

type Server struct {
	repo        repository.ReportRepository
	broadcaster *stream.Broadcaster
	grpcServer  *grpc.Server
}

func NewServer(repo repository.ReportRepository, broadcaster *stream.Broadcaster) *Server {
	s := &Server{
		repo:        repo,
		broadcaster: broadcaster,
		grpcServer:  grpc.NewServer(),
	}
	s.grpcServer.RegisterService(&HazardServiceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) GetReport(ctx context.Context, req *GetReportRequest) (*models.HazardReport, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	report, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get report: %v", err)
	}
	if report == nil {
		return nil, status.Errorf(codes.NotFound, "report not found: %s", req.ID)
	}
	return report, nil
}

func (s *Server) ListReports(ctx context.Context, req *ListReportsRequest) (*ListReportsResponse, error) {
	filter := repository.Filter{Limit: int(req.Limit)}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if req.Type != "" {
		t, ok := models.ParseHazardType(req.Type)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown hazard type: %s", req.Type)
		}
		filter.Type = &t
	}
	if req.MinSeverity != "" {
		sev, ok := models.ParseSeverity(req.MinSeverity)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown severity: %s", req.MinSeverity)
		}
		filter.MinSeverity = &sev
	}
	if req.Status != "" {
		st, ok := models.ParseStatus(req.Status)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown status: %s", req.Status)
		}
		filter.Status = &st
	}

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list reports: %v", err)
	}
	return &ListReportsResponse{Reports: reports}, nil
}

func (s *Server) ListHotspots(ctx context.Context, req *ListHotspotsRequest) (*ListHotspotsResponse, error) {
	var floor models.Intensity
	if req.MinIntensity != "" {
		floor = models.Intensity(req.MinIntensity)
		if floor.Rank() == 0 {
			return nil, status.Errorf(codes.InvalidArgument, "unknown intensity: %s", req.MinIntensity)
		}
	}

	reports, err := s.repo.List(ctx, repository.Filter{OpenOnly: true, Limit: hotspotScanLimit})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list reports: %v", err)
	}

	hotspots := hotspot.Generate(reports)
	if floor != "" {
		kept := hotspots[:0]
		for _, h := range hotspots {
			if h.Intensity.Rank() >= floor.Rank() {
				kept = append(kept, h)
			}
		}
		hotspots = kept
	}
	return &ListHotspotsResponse{Hotspots: hotspots}, nil
}

func (s *Server) StreamReports(req *StreamReportsRequest, srv grpc.ServerStreamingServer[models.ReportEvent]) error {
	minSev := models.SeverityLow
	if req.MinSeverity != "" {
		sev, ok := models.ParseSeverity(req.MinSeverity)
		if !ok {
			return status.Errorf(codes.InvalidArgument, "unknown severity: %s", req.MinSeverity)
		}
		minSev = sev
	}
	var typ models.HazardType
	if req.Type != "" {
		t, ok := models.ParseHazardType(req.Type)
		if !ok {
			return status.Errorf(codes.InvalidArgument, "unknown hazard type: %s", req.Type)
		}
		typ = t
	}

	id, ch := s.broadcaster.Subscribe(stream.MinSeverity(minSev, typ))
	defer s.broadcaster.Unsubscribe(id)

	slog.Info("client subscribed to report stream", "subscriber_id", id)

	for {
		select {
		case <-srv.Context().Done():
			slog.Info("client disconnected from report stream", "subscriber_id", id)
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := srv.Send(ev); err != nil {
				slog.Error("failed to send report event to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}

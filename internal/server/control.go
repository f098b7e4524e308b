package server

import (
	"context"
	"errors"
	"net/http"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/domain"
	"lol-autopilot/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ControlServiceName = "autopilot.v1.ControlService"

const (
	StartProcedure                = "/" + ControlServiceName + "/Start"
	GetStatusProcedure            = "/" + ControlServiceName + "/GetStatus"
	SetPickProcedure              = "/" + ControlServiceName + "/SetPick"
	SetBanProcedure               = "/" + ControlServiceName + "/SetBan"
	SetLoadoutPreferenceProcedure = "/" + ControlServiceName + "/SetLoadoutPreference"
	SendLoadoutProcedure          = "/" + ControlServiceName + "/SendLoadout"
)

// Controller is the worker surface exposed over HTTP.
type Controller interface {
	Start(ctx context.Context) error
	Status() service.Status
	SetPick(ctx context.Context, champ string) (service.SetResult, error)
	SetBan(ctx context.Context, champ string) (service.SetResult, error)
	SetLoadoutPreference(ctx context.Context, enabled bool) error
	SendLoadout(ctx context.Context) error
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type ControlServer struct {
	ctrl   Controller
	logger zerolog.Logger
}

func NewControlServer(ctrl Controller, logger zerolog.Logger) *ControlServer {
	return &ControlServer{ctrl: ctrl, logger: logger.With().Str("component", "control").Logger()}
}

func (s *ControlServer) Start(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StatusResponse], error) {
	if err := s.ctrl.Start(ctx); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toStatusResponse(s.ctrl.Status())), nil
}

func (s *ControlServer) GetStatus(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StatusResponse], error) {
	return connect.NewResponse(toStatusResponse(s.ctrl.Status())), nil
}

func (s *ControlServer) SetPick(ctx context.Context, req *connect.Request[ChampionRequest]) (*connect.Response[ChampionResponse], error) {
	if req.Msg.Champion == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("champ is required"))
	}
	r, err := s.ctrl.SetPick(ctx, req.Msg.Champion)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toChampionResponse(r)), nil
}

func (s *ControlServer) SetBan(ctx context.Context, req *connect.Request[ChampionRequest]) (*connect.Response[ChampionResponse], error) {
	if req.Msg.Champion == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("champ is required"))
	}
	r, err := s.ctrl.SetBan(ctx, req.Msg.Champion)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toChampionResponse(r)), nil
}

func (s *ControlServer) SetLoadoutPreference(ctx context.Context, req *connect.Request[LoadoutPreferenceRequest]) (*connect.Response[LoadoutPreferenceResponse], error) {
	if req.Msg.Enabled == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("setrunes is required"))
	}
	if err := s.ctrl.SetLoadoutPreference(ctx, *req.Msg.Enabled); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&LoadoutPreferenceResponse{Enabled: *req.Msg.Enabled}), nil
}

func (s *ControlServer) SendLoadout(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	if err := s.ctrl.SendLoadout(ctx); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Handlers returns the connect handlers keyed by procedure path.
func (s *ControlServer) Handlers(opts ...connect.HandlerOption) map[string]http.Handler {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	return map[string]http.Handler{
		StartProcedure:                connect.NewUnaryHandler(StartProcedure, s.Start, opts...),
		GetStatusProcedure:            connect.NewUnaryHandler(GetStatusProcedure, s.GetStatus, opts...),
		SetPickProcedure:              connect.NewUnaryHandler(SetPickProcedure, s.SetPick, opts...),
		SetBanProcedure:               connect.NewUnaryHandler(SetBanProcedure, s.SetBan, opts...),
		SetLoadoutPreferenceProcedure: connect.NewUnaryHandler(SetLoadoutPreferenceProcedure, s.SetLoadoutPreference, opts...),
		SendLoadoutProcedure:          connect.NewUnaryHandler(SendLoadoutProcedure, s.SendLoadout, opts...),
	}
}

func connectError(err error) *connect.Error {
	return connect.NewError(errorCode(err), err)
}

func errorCode(err error) connect.Code {
	switch {
	case errors.Is(err, service.ErrAlreadyRunning):
		return connect.CodeAlreadyExists
	case errors.Is(err, service.ErrNotRunning), errors.Is(err, service.ErrNotInChampSelect):
		return connect.CodeFailedPrecondition
	case errors.Is(err, champion.ErrUnknownChampion):
		return connect.CodeNotFound
	case errors.Is(err, api.ErrTransport):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}

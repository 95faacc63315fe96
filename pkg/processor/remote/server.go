package remote

import (
	"context"
	"net/http"
	"net/rpc"

	"github.com/rs/xid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pixeler/internal/codec"
	"pixeler/pkg/proto"
)

// Handler exposes proc as an rpc service at rpc.DefaultRPCPath.
func Handler(proc proto.Processor, logger *zap.Logger) (http.Handler, error) {
	srv := rpc.NewServer()
	if err := srv.Register(&Service{proc: proc, log: logger}); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, srv)
	return mux, nil
}

func Proxy(proc proto.Processor, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	handler, err := Handler(proc, logger)
	if err != nil {
		return err
	}
	srv.Handler = handler

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("listen failed")
				}
			}()
			logger.With(zap.String("addr", srv.Addr)).Info("serving")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return nil
}

type Service struct {
	proc proto.Processor
	log  *zap.Logger
}

func (s *Service) Process(req *ProcessRequest, resp *ProcessResponse) error {
	log := s.log.With(zap.Stringer("job", xid.New()), zap.Int("bytes", len(req.Image)))

	img, err := codec.DecodeBytes(req.Image)
	if err != nil {
		log.With(zap.Error(err)).Warn("process rejected")
		return err
	}

	out, err := s.proc.Process(img, req.Size, req.Palette)
	if err != nil {
		log.With(zap.Error(err)).Warn("process failed")
		return err
	}

	if resp.Image, err = codec.PNGBytes(out); err != nil {
		return err
	}

	log.With(zap.Int("size", req.Size), zap.Int("out", len(resp.Image))).Debug("process done")
	return nil
}

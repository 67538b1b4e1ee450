package app

import (
	"context"

	"road-inspector/internal/domain/entity"
)

// Status снимок состояния для слоя представления.
type Status struct {
	State        entity.SessionState
	SessionID    string
	Threshold    float64
	Gps          entity.GpsReading
	GpsConnected bool
}

// ControlService принимает команды из других горутин и выполняет их в цикле планировщика.
type ControlService struct {
	sched   *Scheduler
	session *SessionController
	gps     *GpsProvider
}

func NewControlService(sched *Scheduler, session *SessionController, gps *GpsProvider) *ControlService {
	return &ControlService{sched: sched, session: session, gps: gps}
}

// SetThreshold возвращает фактически установленный порог.
func (s *ControlService) SetThreshold(ctx context.Context, v float64) (float64, error) {
	var applied float64
	err := s.sched.Do(ctx, func(context.Context) error {
		applied = s.session.SetThreshold(v)
		return nil
	})
	return applied, err
}

func (s *ControlService) OpenImage(ctx context.Context, path string) error {
	return s.sched.Do(ctx, func(ctx context.Context) error {
		return s.session.OpenImage(ctx, path)
	})
}

func (s *ControlService) OpenVideo(ctx context.Context, path string) error {
	return s.sched.Do(ctx, func(ctx context.Context) error {
		return s.session.OpenVideo(ctx, path)
	})
}

func (s *ControlService) StartCamera(ctx context.Context) error {
	return s.sched.Do(ctx, func(ctx context.Context) error {
		return s.session.StartCamera(ctx)
	})
}

func (s *ControlService) Stop(ctx context.Context) error {
	return s.sched.Do(ctx, func(ctx context.Context) error {
		s.session.Stop(ctx)
		return nil
	})
}

func (s *ControlService) SaveToLog(ctx context.Context) error {
	return s.sched.Do(ctx, func(ctx context.Context) error {
		return s.session.SaveToLog(ctx)
	})
}

func (s *ControlService) Connect(ctx context.Context, port string, baud int) error {
	return s.sched.Do(ctx, func(context.Context) error {
		return s.gps.Connect(port, baud)
	})
}

func (s *ControlService) Disconnect(ctx context.Context) error {
	return s.sched.Do(ctx, func(context.Context) error {
		s.gps.Disconnect()
		return nil
	})
}

func (s *ControlService) Ports(ctx context.Context) ([]string, error) {
	var ports []string
	err := s.sched.Do(ctx, func(context.Context) error {
		var err error
		ports, err = s.gps.Ports()
		return err
	})
	return ports, err
}

func (s *ControlService) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.sched.Do(ctx, func(context.Context) error {
		st = Status{
			State:        s.session.State(),
			SessionID:    s.session.SessionID(),
			Threshold:    s.session.Threshold(),
			Gps:          s.gps.Latest(),
			GpsConnected: s.gps.Connected(),
		}
		return nil
	})
	return st, err
}

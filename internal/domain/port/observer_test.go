package port

import (
	"testing"

	"github.com/stretchr/testify/require"

	"road-inspector/internal/domain/entity"
)

type countingObserver struct {
	NopObserver
	states []entity.SessionState
	logged int
}

func (c *countingObserver) OnStateChanged(state entity.SessionState) {
	c.states = append(c.states, state)
}

func (c *countingObserver) OnDefectLogged(entity.DetectionEvent) {
	c.logged++
}

func TestHub_FansOutInOrder(t *testing.T) {
	var hub Hub
	first, second := &countingObserver{}, &countingObserver{}

	hub.OnStateChanged(entity.SessionRunning)
	hub.Add(first)
	hub.Add(second)
	hub.OnStateChanged(entity.SessionIdle)
	hub.OnDefectLogged(entity.DetectionEvent{DefectType: "Pothole"})
	hub.OnFrameReady(entity.Frame{})
	hub.OnDefectsUpdated(nil)
	hub.OnGpsUpdated(entity.GpsNotAvailable)

	for _, obs := range []*countingObserver{first, second} {
		require.Equal(t, []entity.SessionState{entity.SessionIdle}, obs.states)
		require.Equal(t, 1, obs.logged)
	}
}

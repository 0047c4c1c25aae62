package party

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeSync(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name          string
		state         PlaybackState
		now           time.Time
		localPlayhead float64
		localPlaying  bool
		want          SyncDecision
	}{
		{
			name: "in tolerance while playing",
			state: PlaybackState{
				Action:      "play",
				CurrentTime: 100,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base.Add(5 * time.Second),
			localPlayhead: 104.5,
			localPlaying:  true,
			want: SyncDecision{
				Expected: 105,
				Drift:    0.5,
			},
		},
		{
			name: "drifted viewer seeks to expected position",
			state: PlaybackState{
				Action:      "play",
				CurrentTime: 100,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base.Add(5 * time.Second),
			localPlayhead: 92,
			localPlaying:  true,
			want: SyncDecision{
				Expected:   105,
				Drift:      13,
				ShouldSeek: true,
			},
		},
		{
			name: "paused state does not advance with wall time",
			state: PlaybackState{
				Action:      "pause",
				CurrentTime: 50,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base.Add(30 * time.Second),
			localPlayhead: 50,
			localPlaying:  false,
			want: SyncDecision{
				Expected: 50,
				Drift:    0,
			},
		},
		{
			name: "paused viewer resumes on play",
			state: PlaybackState{
				Action:      "play",
				CurrentTime: 10,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base,
			localPlayhead: 10,
			localPlaying:  false,
			want: SyncDecision{
				Expected:     10,
				Drift:        0,
				ShouldResume: true,
			},
		},
		{
			name: "playing viewer pauses on pause",
			state: PlaybackState{
				Action:      "pause",
				CurrentTime: 10,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base,
			localPlayhead: 10,
			localPlaying:  true,
			want: SyncDecision{
				Expected:    10,
				Drift:       0,
				ShouldPause: true,
			},
		},
		{
			name: "exactly at tolerance does not seek",
			state: PlaybackState{
				Action:      "play",
				CurrentTime: 100,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base,
			localPlayhead: 101,
			localPlaying:  true,
			want: SyncDecision{
				Expected: 100,
				Drift:    1,
			},
		},
		{
			name: "authority clock ahead of viewer clamps elapsed to zero",
			state: PlaybackState{
				Action:      "play",
				CurrentTime: 100,
				Speed:       1,
				Timestamp:   base.Add(10 * time.Second).UnixMilli(),
			},
			now:           base,
			localPlayhead: 100,
			localPlaying:  true,
			want: SyncDecision{
				Expected: 100,
				Drift:    0,
			},
		},
		{
			name: "seek state snaps without wall time advance",
			state: PlaybackState{
				Action:      "seek",
				CurrentTime: 200,
				Speed:       1,
				Timestamp:   base.UnixMilli(),
			},
			now:           base.Add(5 * time.Second),
			localPlayhead: 100,
			localPlaying:  true,
			want: SyncDecision{
				Expected:   200,
				Drift:      100,
				ShouldSeek: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSync(tt.state, tt.now, tt.localPlayhead, tt.localPlaying)
			assert.InDelta(t, tt.want.Expected, got.Expected, 1e-9)
			assert.InDelta(t, tt.want.Drift, got.Drift, 1e-9)
			assert.Equal(t, tt.want.ShouldSeek, got.ShouldSeek)
			assert.Equal(t, tt.want.ShouldResume, got.ShouldResume)
			assert.Equal(t, tt.want.ShouldPause, got.ShouldPause)
		})
	}
}

package scoring

import (
	"testing"

	"github.com/museworks/musekit/core"
)

func TestPoints(t *testing.T) {
	tests := []struct {
		name     string
		kind     core.InteractionKind
		duration float64
		want     int
	}{
		{"card click", core.KindCardClick, 0, 1},
		{"detail open", core.KindDetailOpen, 0, 2},
		{"favorite added", core.KindFavoriteAdded, 0, 3},
		{"favorite removed is neutral", core.KindFavoriteRemoved, 0, 0},
		{"thumbs up", core.KindThumbsUp, 0, 3},
		{"thumbs down never adds popularity", core.KindThumbsDown, 0, 0},
		{"website visit", core.KindWebsiteVisit, 0, 2},
		{"reading 90s", core.KindReading, 90, 3},
		{"reading 29s below first interval", core.KindReading, 29, 0},
		{"reading 30s exact", core.KindReading, 30, 1},
		{"reading capped at 600s", core.KindReading, 3600, 20},
		{"reading zero duration", core.KindReading, 0, 0},
		{"reading negative duration", core.KindReading, -10, 0},
		{"unknown kind scores zero", core.InteractionKind("page_scroll"), 0, 0},
		{"empty kind scores zero", core.InteractionKind(""), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Points(tt.kind, tt.duration)
			if got != tt.want {
				t.Errorf("Points(%q, %v) = %d, want %d", tt.kind, tt.duration, got, tt.want)
			}
			if got < 0 {
				t.Errorf("Points(%q, %v) = %d, must never be negative", tt.kind, tt.duration, got)
			}
		})
	}
}

func TestReadingPointsCap(t *testing.T) {
	// 600 秒窗口封顶：之后再长也不加分
	for _, dur := range []float64{600, 601, 10000} {
		if got := ReadingPoints(dur); got != 20 {
			t.Errorf("ReadingPoints(%v) = %d, want 20", dur, got)
		}
	}
}

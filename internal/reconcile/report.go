package reconcile

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/quizsync/internal/dto"
)

// ScoreDiscrepancy records a confirmed score that differs from the one the
// learner was shown while offline.
type ScoreDiscrepancy struct {
	AttemptID    int64
	LocalScore   int
	ServerScore  int
	LocalPassed  bool
	ServerPassed bool
}

type LaneReport struct {
	Lane       string
	Replayed   int
	Rejected   int
	Dropped    int
	Remaining  int
	RemappedTo int64
	Err        error
}

type Report struct {
	StartedAt            time.Time
	FinishedAt           time.Time
	Replayed             int
	Rejected             int
	Dropped              int
	AuthenticationFailed bool
	Lanes                []LaneReport
	Discrepancies        []ScoreDiscrepancy
}

func (r *Report) add(lane LaneReport, discrepancies []ScoreDiscrepancy) {
	r.Lanes = append(r.Lanes, lane)
	r.Replayed += lane.Replayed
	r.Rejected += lane.Rejected
	r.Dropped += lane.Dropped
	r.Discrepancies = append(r.Discrepancies, discrepancies...)
}

// Remaining is the number of entries left behind by the pass.
func (r *Report) Remaining() int {
	n := 0
	for _, l := range r.Lanes {
		n += l.Remaining
	}
	return n
}

func (r *Report) DTO() *dto.SyncReportDTO {
	out := &dto.SyncReportDTO{}
	_ = copier.Copy(out, r)
	out.Lanes = make([]dto.LaneReportDTO, 0, len(r.Lanes))
	for _, l := range r.Lanes {
		lane := dto.LaneReportDTO{}
		_ = copier.Copy(&lane, &l)
		if l.Err != nil {
			lane.Error = l.Err.Error()
		}
		out.Lanes = append(out.Lanes, lane)
	}
	out.Discrepancies = make([]dto.ScoreDiscrepancyDTO, 0, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		out.Discrepancies = append(out.Discrepancies, d.DTO())
	}
	return out
}

func (d ScoreDiscrepancy) DTO() dto.ScoreDiscrepancyDTO {
	var out dto.ScoreDiscrepancyDTO
	_ = copier.Copy(&out, &d)
	return out
}

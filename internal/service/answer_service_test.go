package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rajisurvase/village-orbit-api/internal/model"
)

func TestUnpersistedSelections(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	q3 := uuid.New()

	persistedRow := func(qid uuid.UUID, opt string) model.ExamAnswer {
		return model.ExamAnswer{QuestionID: qid, SelectedOption: opt}
	}

	tests := []struct {
		name      string
		hot       map[string]string
		persisted []model.ExamAnswer
		want      map[string]string
	}{
		{
			name:      "everything already durable",
			hot:       map[string]string{q1.String(): "A", q2.String(): "B"},
			persisted: []model.ExamAnswer{persistedRow(q1, "A"), persistedRow(q2, "B")},
			want:      map[string]string{},
		},
		{
			// An acknowledged save whose queue entry the worker has not
			// consumed yet: hot holds it, the durable rows do not.
			name:      "acknowledged answer still in flight",
			hot:       map[string]string{q1.String(): "A", q2.String(): "B", q3.String(): "C"},
			persisted: []model.ExamAnswer{persistedRow(q1, "A"), persistedRow(q2, "B")},
			want:      map[string]string{q3.String(): "C"},
		},
		{
			// A re-selection overtook the durable row; the hot value is
			// the last acknowledged one and must win.
			name:      "durable row holds a stale option",
			hot:       map[string]string{q1.String(): "D"},
			persisted: []model.ExamAnswer{persistedRow(q1, "A")},
			want:      map[string]string{q1.String(): "D"},
		},
		{
			name:      "empty hot copy",
			hot:       map[string]string{},
			persisted: []model.ExamAnswer{persistedRow(q1, "A")},
			want:      map[string]string{},
		},
		{
			name:      "nothing durable yet",
			hot:       map[string]string{q1.String(): "A", q2.String(): "C"},
			persisted: nil,
			want:      map[string]string{q1.String(): "A", q2.String(): "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unpersistedSelections(tt.hot, tt.persisted)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d selections, want %d", len(got), len(tt.want))
			}
			for _, p := range got {
				want, ok := tt.want[p.QuestionID]
				if !ok {
					t.Errorf("unexpected question %s", p.QuestionID)
					continue
				}
				if p.SelectedOption != want {
					t.Errorf("question %s: option = %s, want %s", p.QuestionID, p.SelectedOption, want)
				}
			}
		})
	}
}

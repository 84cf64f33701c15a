package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

func TestParseEmailList(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []string
		wantErr bool
	}{
		{name: "empty", value: "", want: nil},
		{name: "strings", value: `["a@example.com","b@example.com"]`, want: []string{"a@example.com", "b@example.com"}},
		{name: "objects", value: `[{"email":"a@example.com"}]`, want: []string{"a@example.com"}},
		{name: "mixed", value: `["a@example.com",{"email":"b@example.com"}]`, want: []string{"a@example.com", "b@example.com"}},
		{name: "empty array", value: `[]`, want: []string{}},
		{name: "plain text", value: "a@example.com", wantErr: true},
		{name: "numbers", value: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEmailList(tt.value)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStageUpdates(t *testing.T) {
	feedback := "ok"

	t.Run("updates map in stage order", func(t *testing.T) {
		got, err := stageUpdates(StageStatusRequest{Updates: map[string]string{
			"hr_status":   "Completed",
			"l1_feedback": "ok",
			"L1_STATUS":   "Rejected",
		}})
		require.NoError(t, err)
		assert.Equal(t, []workflow.StageUpdate{
			{Stage: models.StageL1, Status: "Rejected", Feedback: &feedback},
			{Stage: models.StageHR, Status: "Completed"},
		}, got)
	})

	t.Run("single stage", func(t *testing.T) {
		got, err := stageUpdates(StageStatusRequest{Stage: "l2", Status: "Pending", Feedback: &feedback})
		require.NoError(t, err)
		assert.Equal(t, []workflow.StageUpdate{{Stage: "l2", Status: "Pending", Feedback: &feedback}}, got)
	})

	for _, field := range []string{"status", "l5_status", "l1_score", "l1"} {
		t.Run("rejects "+field, func(t *testing.T) {
			_, err := stageUpdates(StageStatusRequest{Updates: map[string]string{field: "x"}})
			require.Error(t, err)
		})
	}

	t.Run("empty request", func(t *testing.T) {
		_, err := stageUpdates(StageStatusRequest{})
		require.Error(t, err)
	})
}

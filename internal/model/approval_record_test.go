package model_test

import (
	"testing"

	"github.com/mautops/office-gin/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestApprovalRecord_Overrides(t *testing.T) {
	tests := []struct {
		previous string
		want     bool
	}{
		{"", false},
		{model.ApprovalStatusPending, false},
		{model.ApprovalStatusApproved, true},
		{model.ApprovalStatusRejected, true},
	}
	for _, tt := range tests {
		r := &model.ApprovalRecordModel{PreviousStatus: tt.previous}
		assert.Equal(t, tt.want, r.Overrides(), tt.previous)
	}
}

func TestApprovalRecord_Check(t *testing.T) {
	r := &model.ApprovalRecordModel{TaskID: "t1", Approver: "M1", Result: model.ApprovalStatusRejected}
	assert.NoError(t, r.Check())

	r.Result = model.ApprovalStatusPending
	assert.EqualError(t, r.Check(), `approval record: unexpected result "pending"`)

	r.Approver = ""
	assert.EqualError(t, r.Check(), "approval record: approver is empty")
}

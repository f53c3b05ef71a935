package router

import (
	"errors"
	"testing"

	"github.com/faceofmind/admin-sync/internal/model"
)

const weekData = `{"labels":["Mon","Tue"],"data_all":[1,2],"data_admin":[0,1],"data_professional":[1,0],"data_user":[0,1],"total_users":10,"new_users":3,"admin_count":1,"professional_count":4,"regular_count":5,"period":"week","group_by":"day"}`

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		check   func(t *testing.T, in Inbound)
		wantErr bool
	}{
		{
			name: "analytics update with period",
			data: `{"type":"analytics_update","period":"month","request_id":"r1","data":` + weekData + `}`,
			check: func(t *testing.T, in Inbound) {
				u, ok := in.(AnalyticsUpdate)
				if !ok {
					t.Fatalf("got %T, want AnalyticsUpdate", in)
				}
				if u.Period != model.PeriodMonth {
					t.Errorf("Period = %q, want month", u.Period)
				}
				if u.RequestID != "r1" {
					t.Errorf("RequestID = %q, want r1", u.RequestID)
				}
				if u.Snapshot == nil || u.Snapshot.TotalUsers != 10 {
					t.Errorf("Snapshot = %+v", u.Snapshot)
				}
			},
		},
		{
			name: "initial push takes period from data",
			data: `{"type":"analytics_update","data":` + weekData + `}`,
			check: func(t *testing.T, in Inbound) {
				u := in.(AnalyticsUpdate)
				if u.Period != model.PeriodWeek {
					t.Errorf("Period = %q, want week", u.Period)
				}
			},
		},
		{
			name: "analytics update without data",
			data: `{"type":"analytics_update","period":"week"}`,
			check: func(t *testing.T, in Inbound) {
				if u := in.(AnalyticsUpdate); u.Snapshot != nil {
					t.Error("Snapshot should be nil")
				}
			},
		},
		{
			name: "notification",
			data: `{"type":"analytics_notification","message":"3 new users","data":{"count":3}}`,
			check: func(t *testing.T, in Inbound) {
				n := in.(Notification)
				if n.Message != "3 new users" {
					t.Errorf("Message = %q", n.Message)
				}
				if string(n.Data) != `{"count":3}` {
					t.Errorf("Data = %s", n.Data)
				}
			},
		},
		{
			name: "pong",
			data: `{"type":"pong"}`,
			check: func(t *testing.T, in Inbound) {
				if _, ok := in.(Pong); !ok {
					t.Errorf("got %T, want Pong", in)
				}
			},
		},
		{
			name: "server error",
			data: `{"type":"error","message":"Invalid JSON format"}`,
			check: func(t *testing.T, in Inbound) {
				if e := in.(ServerError); e.Message != "Invalid JSON format" {
					t.Errorf("Message = %q", e.Message)
				}
			},
		},
		{
			name: "unknown type",
			data: `{"type":"user_created","id":4}`,
			check: func(t *testing.T, in Inbound) {
				if u := in.(Unknown); u.Type != "user_created" {
					t.Errorf("Type = %q", u.Type)
				}
			},
		},
		{name: "invalid json", data: `{invalid json}`, wantErr: true},
		{name: "not an object", data: `[1,2,3]`, wantErr: true},
		{name: "null", data: `null`, wantErr: true},
		{name: "bare string", data: `"analytics_update"`, wantErr: true},
		{name: "empty frame", data: `  `, wantErr: true},
		{name: "snapshot wrong shape", data: `{"type":"analytics_update","data":"oops"}`, wantErr: true},
		{name: "ragged series", data: `{"type":"analytics_update","data":{"labels":["a","b"],"data_all":[1],"data_admin":[1,1],"data_professional":[1,1],"data_user":[1,1]}}`, wantErr: true},
		{name: "bad period", data: `{"type":"analytics_update","period":"decade","data":` + weekData + `}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Decode([]byte(tt.data))
			if tt.wantErr {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("error = %v, want *DecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			tt.check(t, in)
		})
	}
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Type: "analytics_update", Reason: "invalid snapshot", Err: model.ErrSeriesMismatch}
	want := "decode inbound message analytics_update: invalid snapshot: analytics series length mismatch"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, model.ErrSeriesMismatch) {
		t.Error("DecodeError should unwrap to the cause")
	}
}

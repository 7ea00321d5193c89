package timestamp

import (
	"testing"

	"loglens/internal/value"
)

func TestField(t *testing.T) {
	tests := []struct {
		name       string
		fields     value.Map
		configured string
		want       string
	}{
		{
			name:   "candidate order beats key order",
			fields: value.Map{"timestamp": value.Text("2024-05-01T00:00:00Z"), "created_at": value.Text("2020-01-01T00:00:00Z")},
			want:   "2024-05-01T00:00:00Z",
		},
		{
			name:   "time before date",
			fields: value.Map{"date": value.Text("2020-01-01T00:00:00Z"), "time": value.Number(1700000000)},
			want:   "2023-11-14T22:13:20.000Z",
		},
		{
			name:       "configured field",
			fields:     value.Map{"timestamp": value.Text("2024-05-01T00:00:00Z"), "ts": value.Number(1700000000000)},
			configured: "ts",
			want:       "2023-11-14T22:13:20.000Z",
		},
		{
			name:       "configured nested path",
			fields:     value.Map{"meta": value.Map{"at": value.Text("2021-02-03T04:05:06Z")}},
			configured: "meta.at",
			want:       "2021-02-03T04:05:06Z",
		},
		{
			name:       "configured missing falls back",
			fields:     value.Map{"@timestamp": value.Text("2022-01-01T00:00:00Z")},
			configured: "ts",
			want:       "2022-01-01T00:00:00Z",
		},
		{
			name:   "empty and null skipped",
			fields: value.Map{"timestamp": value.Text(""), "time": value.Null{}, "datetime": value.Text("2019-01-01T00:00:00Z")},
			want:   "2019-01-01T00:00:00Z",
		},
		{
			name:   "none",
			fields: value.Map{"msg": value.Text("x")},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.fields, tt.configured); got != tt.want {
				t.Errorf("Field = %q, want %q", got, tt.want)
			}
		})
	}
}

package feeder

import "testing"

func intp(v int) *int { return &v }

func TestScheduleComplete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    Schedule
		want bool
	}{
		{name: "unset", s: UnsetSchedule(), want: false},
		{name: "full", s: Schedule{Day: 3, Hour: 9, Minute: 30}, want: true},
		{name: "midnight sunday", s: Schedule{Day: 0, Hour: 0, Minute: 0}, want: true},
		{name: "missing day", s: Schedule{Day: Unset, Hour: 9, Minute: 30}, want: false},
		{name: "missing minute", s: Schedule{Day: 3, Hour: 9, Minute: Unset}, want: false},
		{name: "hour out of range", s: Schedule{Day: 3, Hour: 24, Minute: 0}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Complete(); got != tt.want {
				t.Fatalf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		u       Update
		wantErr bool
	}{
		{name: "empty", u: Update{}},
		{name: "valid full", u: Update{Day: intp(6), Hour: intp(23), Minute: intp(59)}},
		{name: "day too big", u: Update{Day: intp(7)}, wantErr: true},
		{name: "negative hour", u: Update{Hour: intp(-1)}, wantErr: true},
		{name: "minute too big", u: Update{Minute: intp(60)}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.u.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateApplyKeepsUnsuppliedFields(t *testing.T) {
	t.Parallel()
	prev := Schedule{Day: 2, Hour: 9, Minute: 30}
	got := Update{Hour: intp(18)}.apply(prev)
	want := Schedule{Day: 2, Hour: 18, Minute: 30}
	if got != want {
		t.Fatalf("apply = %+v, want %+v", got, want)
	}
}

func TestScheduleDescribe(t *testing.T) {
	t.Parallel()
	if got := (Schedule{Day: 3, Hour: 9, Minute: 5}).Describe(); got != "Wednesday 09:05" {
		t.Fatalf("Describe() = %q", got)
	}
	if got := (Schedule{Day: Unset, Hour: 9, Minute: Unset}).Describe(); got != "(no day) 09:--" {
		t.Fatalf("Describe() = %q", got)
	}
}

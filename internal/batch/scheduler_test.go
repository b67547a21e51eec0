package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/config"
)

func TestParseCron(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 22 * * *", false},   // 10 PM daily
		{"0 12 * * 1-5", false}, // noon weekdays
		{"*/5 * * * *", false},  // every 5 minutes
		{"invalid", true},
	}

	for _, tt := range tests {
		_, err := ParseCron(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := config.ScheduleConfig{Name: "nightly", Cron: "0 22 * * *"}
	if err := Validate(cfg); err != nil {
		t.Errorf("Valid config should not error: %v", err)
	}

	cfg.Name = ""
	if err := Validate(cfg); err == nil {
		t.Error("Empty name should error")
	}

	dup := []config.ScheduleConfig{
		{Name: "a", Cron: "0 1 * * *"},
		{Name: "a", Cron: "0 2 * * *"},
	}
	if err := ValidateAll(dup); err == nil {
		t.Error("Duplicate names should error")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	sched, err := NewScheduler([]config.ScheduleConfig{{Name: "test", Cron: "0 22 * * *"}})
	if err != nil {
		t.Fatal(err)
	}

	next := sched.NextRun("test")
	if next.IsZero() {
		t.Error("NextRun should return a time")
	}
	if !next.After(time.Now()) {
		t.Error("NextRun should be in the future")
	}
}

func TestScheduler_ShouldRun(t *testing.T) {
	sched, err := NewScheduler([]config.ScheduleConfig{{Name: "test", Cron: "* * * * *"}})
	if err != nil {
		t.Fatal(err)
	}

	sched.lastRun["test"] = time.Now().Add(-2 * time.Minute)
	if !sched.ShouldRun("test") {
		t.Error("Should run after cron interval passed")
	}

	sched.MarkRunning("test")
	if sched.ShouldRun("test") {
		t.Error("Running batch should not start again")
	}
}

func TestScheduler_TickSequential(t *testing.T) {
	sched, err := NewScheduler([]config.ScheduleConfig{
		{Name: "b-nightly", Cron: "* * * * *"},
		{Name: "a-hourly", Cron: "* * * * *"},
		{Name: "never", Cron: "0 0 1 1 *"},
	})
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-2 * time.Minute)
	for _, name := range []string{"b-nightly", "a-hourly"} {
		sched.lastRun[name] = past
	}
	sched.lastRun["never"] = time.Now()

	var order []string
	active := 0
	ran := sched.Tick(context.Background(), func(ctx context.Context, cfg config.ScheduleConfig) error {
		active++
		if active > 1 {
			t.Error("batches overlapped")
		}
		order = append(order, cfg.Name)
		active--
		if cfg.Name == "a-hourly" {
			return errors.New("boom")
		}
		return nil
	})

	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if len(order) != 2 || order[0] != "a-hourly" || order[1] != "b-nightly" {
		t.Errorf("order = %v", order)
	}
	if sched.ShouldRun("a-hourly") {
		t.Error("failed batch should still be marked complete")
	}
}

func TestScheduler_TickCancelled(t *testing.T) {
	sched, err := NewScheduler([]config.ScheduleConfig{{Name: "x", Cron: "* * * * *"}})
	if err != nil {
		t.Fatal(err)
	}
	sched.lastRun["x"] = time.Now().Add(-2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ran := sched.Tick(ctx, func(context.Context, config.ScheduleConfig) error { return nil }); ran != 0 {
		t.Errorf("cancelled tick ran %d batches", ran)
	}
}
